package middleware

import "github.com/labstack/echo/v4"

// RouteMeta is the per-route access configuration, attached explicitly
// at registration time. No reflection or framework metadata lookup is
// involved: the router declares, the guards consult.
type RouteMeta struct {
	// Public routes skip authentication entirely.
	Public bool
	// RequiredRoles, when non-empty, means the principal must carry at
	// least one of the listed roles.
	RequiredRoles []string
}

// Routes maps "METHOD /registered/path" to its metadata. Routes absent
// from the table default to authenticated with no role requirement.
type Routes struct {
	meta map[string]RouteMeta
}

func NewRoutes() *Routes {
	return &Routes{meta: make(map[string]RouteMeta)}
}

// Declare records metadata for a route. Call it alongside the echo
// route registration using the same method and path pattern.
func (r *Routes) Declare(method, path string, meta RouteMeta) {
	r.meta[method+" "+path] = meta
}

// Meta returns the metadata for the matched route of this request.
func (r *Routes) Meta(c echo.Context) RouteMeta {
	return r.meta[c.Request().Method+" "+c.Path()]
}

// IsPublic reports whether the matched route bypasses authentication.
func (r *Routes) IsPublic(c echo.Context) bool {
	return r.Meta(c).Public
}

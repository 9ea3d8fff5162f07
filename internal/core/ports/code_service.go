package ports

// CodeService issues and checks one-time confirmation codes. Only the
// hash is ever persisted; the plaintext code travels out-of-band.
type CodeService interface {
	// Generate returns a fresh code and its hash.
	Generate() (code string, hash string, err error)
	// Matches reports whether code has the shape of an issued code.
	// Callers check this before any store lookup so malformed input
	// costs nothing.
	Matches(code string) bool
	// Validate reports whether code matches hash. Inputs that do not
	// match the code pattern short-circuit to false without a compare.
	Validate(code, hash string) bool
}

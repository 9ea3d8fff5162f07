package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenantgrid/authd/internal/core/domain"
	"github.com/tenantgrid/authd/internal/core/ports"
)

// passwordCost is the bcrypt cost used for account passwords. One-time
// codes use the default cost; passwords are long-lived and get more.
const passwordCost = 12

const resetTokenTTL = time.Hour

// AuthFlowService orchestrates login, registration, email confirmation
// and the password flows. It is state-free: all state lives in the
// credential store, all secrets are bcrypt-hashed before persistence.
type AuthFlowService struct {
	store  ports.CredentialStore
	codes  ports.CodeService
	tokens ports.TokenCodec
	mailer ports.Mailer
	events ports.EventPublisher
	log    zerolog.Logger

	signupDisabled bool
	now            func() time.Time
}

func NewAuthFlowService(
	store ports.CredentialStore,
	codes ports.CodeService,
	tokens ports.TokenCodec,
	mailer ports.Mailer,
	events ports.EventPublisher,
	signupDisabled bool,
	log zerolog.Logger,
) *AuthFlowService {
	return &AuthFlowService{
		store:          store,
		codes:          codes,
		tokens:         tokens,
		mailer:         mailer,
		events:         events,
		log:            log,
		signupDisabled: signupDisabled,
		now:            time.Now,
	}
}

// Login verifies a local credential pair and issues a session token.
// Unknown email, unconfirmed email, federated-only account and wrong
// password all collapse to ErrInvalidCredentials.
func (s *AuthFlowService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !user.Confirmed() || user.PasswordHash == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(ports.SessionClaims{
		Subject: user.ID,
		Email:   user.Email,
		Roles:   []string{user.Role},
	})
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register creates a local account. The first account in the store is
// auto-confirmed and granted the admin role; every later account starts
// inert until its emailed confirmation code is redeemed.
func (s *AuthFlowService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	if s.signupDisabled {
		return nil, "", domain.ErrSignupDisabled
	}
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	count, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, "", err
	}
	// Count-then-insert is not serialized: two concurrent first
	// registrations can both land here with count==0 and both become
	// admin. Accepted bootstrap-window risk.
	first := count == 0

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	ts := s.now().UTC()
	user := &domain.User{
		Email:        domain.NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	var code string
	if first {
		user.Role = domain.RoleAdmin
		user.EmailConfirmedAt = &ts
	} else {
		var codeHash string
		code, codeHash, err = s.codes.Generate()
		if err != nil {
			return nil, "", err
		}
		user.EmailConfirmationTokenHash = codeHash
	}

	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	message := "registration complete"
	if !first {
		message = "confirmation code sent"
		// Delivery failure must not roll back the account; the code
		// can be re-requested later.
		if err := s.mailer.Send(ctx, created.Email, "Confirm your email",
			fmt.Sprintf("Your confirmation code is %s", code)); err != nil {
			s.log.Error().Err(err).Str("email", created.Email).Msg("confirmation email failed")
		}
	}

	s.events.Publish(domain.Event{
		Kind:       domain.EventUserCreated,
		UserID:     created.ID,
		Source:     "register",
		OccurredAt: ts,
	})
	return created, message, nil
}

// ConfirmEmail redeems a confirmation code and activates the account.
// A code that cannot be one we issued is rejected before any store
// lookup.
func (s *AuthFlowService) ConfirmEmail(ctx context.Context, email, code string) error {
	if !s.codes.Matches(code) {
		return domain.ErrInvalidCode
	}

	user, err := s.store.Users().FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCode
		}
		return err
	}

	if !s.codes.Validate(code, user.EmailConfirmationTokenHash) {
		return domain.ErrInvalidCode
	}

	ts := s.now().UTC()
	user.EmailConfirmedAt = &ts
	user.EmailConfirmationTokenHash = ""
	user.UpdatedAt = ts
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	s.events.Publish(domain.Event{
		Kind:       domain.EventUserConfirmed,
		UserID:     user.ID,
		Source:     "confirm-email",
		OccurredAt: ts,
	})
	return nil
}

// RequestPasswordReset issues a reset code when the account is eligible.
// It always succeeds from the caller's perspective: the response for a
// nonexistent email is indistinguishable from the response for a real
// one.
func (s *AuthFlowService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.Users().FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.PasswordHash == "" {
		// Federated-only account: nothing to reset, same silence.
		return nil
	}

	code, hash, err := s.codes.Generate()
	if err != nil {
		return err
	}

	ts := s.now().UTC()
	expiry := ts.Add(resetTokenTTL)
	user.PasswordResetTokenHash = hash
	user.PasswordResetExpiresAt = &expiry
	user.UpdatedAt = ts
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, user.Email, "Password reset",
		fmt.Sprintf("Your password reset code is %s", code)); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("reset email failed")
	}
	return nil
}

// ResetPassword redeems a reset code and replaces the password. A code
// presented exactly at the stored expiry is already expired: validity
// requires now < expiry. Malformed codes fail before any store lookup.
func (s *AuthFlowService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if !s.codes.Matches(code) {
		return domain.ErrInvalidCode
	}

	user, err := s.store.Users().FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCode
		}
		return err
	}

	if user.PasswordResetTokenHash == "" || user.PasswordResetExpiresAt == nil {
		return domain.ErrInvalidCode
	}
	if !s.now().Before(*user.PasswordResetExpiresAt) {
		return domain.ErrInvalidCode
	}
	if !s.codes.Validate(code, user.PasswordResetTokenHash) {
		return domain.ErrInvalidCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ts := s.now().UTC()
	user.PasswordHash = string(hash)
	user.PasswordResetTokenHash = ""
	user.PasswordResetExpiresAt = nil
	user.UpdatedAt = ts
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	s.events.Publish(domain.Event{
		Kind:       domain.EventPasswordReset,
		UserID:     user.ID,
		Source:     "reset-password",
		OccurredAt: ts,
	})
	return nil
}

// DeleteUser removes an account and its client memberships. The caller
// is already role-gated; this only touches the store.
func (s *AuthFlowService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		return err
	}
	s.events.Publish(domain.Event{
		Kind:       domain.EventUserDeleted,
		UserID:     userID,
		Source:     "admin",
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// verifying the current one.
func (s *AuthFlowService) ChangePassword(ctx context.Context, userID, current, next, nextConfirmation string) error {
	if next != nextConfirmation {
		return domain.ErrPasswordConfirmation
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return domain.ErrNoLocalPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now().UTC()
	return s.store.Users().Update(ctx, user)
}

package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ConfirmationCodeService issues the one-time codes used for email
// confirmation and password reset. Codes are short-lived secrets, so
// only their bcrypt hash is ever stored and comparison always goes
// through bcrypt, never string equality.
type ConfirmationCodeService struct {
	cost int
}

func NewConfirmationCodeService() *ConfirmationCodeService {
	return &ConfirmationCodeService{cost: bcrypt.DefaultCost}
}

// Generate returns a fresh 6-character uppercase alphanumeric code and
// its bcrypt hash.
func (s *ConfirmationCodeService) Generate() (string, string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", "", fmt.Errorf("generate code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	code := string(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", "", fmt.Errorf("hash code: %w", err)
	}
	return code, string(hash), nil
}

// Matches reports whether code has the shape of an issued code.
func (s *ConfirmationCodeService) Matches(code string) bool {
	return codePattern.MatchString(code)
}

// Validate reports whether code matches hash. A code that does not
// match the expected pattern fails immediately, skipping the compare.
func (s *ConfirmationCodeService) Validate(code, hash string) bool {
	if hash == "" || !s.Matches(code) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

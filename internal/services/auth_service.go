package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthStore is the slice of the test store the login paths consult.
type AuthStore interface {
	GetTest(id string) (*Test, error)
}

// TokenSigner issues a signed session token for an authenticated admin.
type TokenSigner func(username, role string, ttl time.Duration) (string, error)

// AuthService gates the two entry points: the single fixed admin account
// and the student link, which only opens while its test is active. There
// is no lockout or retry limit; a failed attempt just fails.
type AuthService struct {
	store     AuthStore
	adminUser string
	adminHash []byte
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token    string
	Username string
}

// NewAuthService hashes the configured admin password once up front so
// logins only ever compare against the hash.
func NewAuthService(store AuthStore, adminUser, adminPass string, signer TokenSigner) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		store:     store,
		adminUser: adminUser,
		adminHash: hash,
		signToken: signer,
		tokenTTL:  12 * time.Hour,
	}, nil
}

// AdminLogin checks the fixed credential pair and issues a token.
func (s *AuthService) AdminLogin(username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewInvalidError("username/password required")
	}
	if username != s.adminUser {
		return nil, NewUnauthorizedError("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid username or password")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(username, "admin", s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Username: username}, nil
}

// StudentLogin admits a student into a test. The test must exist and be
// the currently active one; otherwise the link is refused.
func (s *AuthService) StudentLogin(testID string) (*Test, error) {
	testID = strings.TrimSpace(testID)
	if testID == "" {
		return nil, NewInvalidError("test id required")
	}
	t, err := s.store.GetTest(testID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("test not found")
	}
	if !t.IsActive {
		return nil, NewUnauthorizedError("this test is not currently active")
	}
	return t, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

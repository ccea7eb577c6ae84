package auth

import (
	"errors"
	"strings"
)

var (
	// ErrNotAuthenticated means there is no valid session. Every core
	// operation checks this first and short-circuits.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator resolves sessions for the single configured dashboard user.
type Authenticator struct {
	jwt          *JWT
	userID       string
	email        string
	passwordHash string
}

func NewAuthenticator(jwt *JWT, userID, email, passwordHash string) *Authenticator {
	return &Authenticator{
		jwt:          jwt,
		userID:       userID,
		email:        email,
		passwordHash: passwordHash,
	}
}

// Login verifies the credentials and issues a session token.
func (a *Authenticator) Login(email, password string) (string, error) {
	if !strings.EqualFold(email, a.email) {
		return "", ErrInvalidCredentials
	}
	if err := VerifyPassword(a.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return a.jwt.Generate(a.userID, a.email)
}

// CurrentUser resolves a bearer token to the owning user id. An empty or
// invalid token is an authentication error.
func (a *Authenticator) CurrentUser(token string) (string, error) {
	if token == "" {
		return "", ErrNotAuthenticated
	}
	claims, err := a.jwt.Validate(token)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	if claims.UserID != a.userID {
		return "", ErrNotAuthenticated
	}
	return claims.UserID, nil
}

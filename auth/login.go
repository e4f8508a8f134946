package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MsgInvalidCredentials is shown when the credential check fails.
const MsgInvalidCredentials = "Invalid username or password"

// DemoUserID is the id given to every demo login.
const DemoUserID = "1"

var ErrInvalidCredentials = errors.New(MsgInvalidCredentials)

// Credentials is what the login form submits.
type Credentials struct {
	Username string
	Password string
}

// Authenticator checks credentials against the single configured demo pair
// after a fixed delay that stands in for a network round trip.
// It provides no real security.
type Authenticator struct {
	username string
	hash     []byte
	delay    time.Duration
}

type AuthenticatorOption func(*authenticatorConfig)

type authenticatorConfig struct {
	cost int
}

// WithHashCost sets the bcrypt cost used to hash the demo password.
func WithHashCost(cost int) AuthenticatorOption {
	return func(c *authenticatorConfig) { c.cost = cost }
}

// NewAuthenticator hashes the demo password so the plaintext is not kept around.
func NewAuthenticator(username, password string, delay time.Duration, opts ...AuthenticatorOption) (*Authenticator, error) {
	cfg := authenticatorConfig{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cost < bcrypt.MinCost || cfg.cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	return &Authenticator{
		username: username,
		hash:     hash,
		delay:    delay,
	}, nil
}

// Login waits out the simulated latency and then compares the credentials.
// It returns ctx.Err() if ctx ends first.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (User, error) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return User{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return User{}, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password))
	if !userOK || passErr != nil {
		return User{}, ErrInvalidCredentials
	}

	return User{ID: DemoUserID, Username: creds.Username}, nil
}

// Package auth is the farm's login gate: one configured email and password,
// a persisted logged-in flag, and an optionally remembered email. It keeps
// casual visitors out of the API; it is not a security boundary.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/farmhand/farmhand/internal/kv"
)

// Storage keys.
const (
	KeyAuth  = "farm_auth"
	KeyEmail = "farm_email"
)

// ErrInvalidCredentials is returned by Login on a mismatch.
var ErrInvalidCredentials = errors.New("auth: invalid email or password")

// Gate checks the single configured credential.
type Gate struct {
	store    *kv.Store
	email    string
	password string
}

// New returns a gate accepting email/password, persisting state in store.
func New(store *kv.Store, email, password string) *Gate {
	return &Gate{store: store, email: email, password: password}
}

// Login checks the credential and marks the installation logged in. With
// remember the email is kept for the next login form; without it any
// remembered email is forgotten.
func (g *Gate) Login(email, password string, remember bool) error {
	email = strings.TrimSpace(email)
	if email != g.email || password != g.password {
		return ErrInvalidCredentials
	}
	if err := g.store.Set(KeyAuth, "true"); err != nil {
		return fmt.Errorf("auth: login: %w", err)
	}
	if remember {
		if err := g.store.Set(KeyEmail, email); err != nil {
			return fmt.Errorf("auth: remember email: %w", err)
		}
	} else if err := g.store.Delete(KeyEmail); err != nil {
		return fmt.Errorf("auth: forget email: %w", err)
	}
	return nil
}

// Logout clears the logged-in flag. The remembered email is kept.
func (g *Gate) Logout() error {
	if err := g.store.Delete(KeyAuth); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}

// Authenticated reports whether the logged-in flag is set.
func (g *Gate) Authenticated() bool {
	var v string
	if err := g.store.Get(KeyAuth, &v); err != nil {
		return false
	}
	return v == "true"
}

// RememberedEmail returns the email saved by the last remembered login.
func (g *Gate) RememberedEmail() string {
	var email string
	if err := g.store.Get(KeyEmail, &email); err != nil {
		return ""
	}
	return email
}

// Guard rejects requests while logged out: browsers are redirected to
// /login, API clients get 401.
func (g *Gate) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.Authenticated() {
			c.Next()
			return
		}
		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/constant"
)

// User is an account as returned by the backend. The password hash is never kept.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

type wireUser struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Token     string          `json:"token"`
	CreatedAt Timestamp       `json:"createdAt"`
}

func (w wireUser) user() User {
	id := normalizeID(w.ID)
	if id == "" {
		id = normalizeID(w.MongoID)
	}
	return User{ID: id, Username: w.Username, Email: w.Email, CreatedAt: w.CreatedAt}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

var ErrMissingCredentials = errors.New("username and password are required")

// Login verifies the credentials and returns the session they establish.
// The session is not persisted; that is up to the caller.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var w wireUser
	if err := c.postJSON(ctx, constant.RouteLogin, credentials{Username: username, Password: password}, &w); err != nil {
		return nil, err
	}

	u := w.user()
	if u.Username == "" {
		u.Username = username
	}

	return auth.NewSession(u.Username, u.ID, w.Token, auth.Lifetime()), nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var w wireUser
	in := credentials{Username: username, Password: password, Email: strings.TrimSpace(email)}
	if err := c.postJSON(ctx, constant.RouteRegister, in, &w); err != nil {
		return nil, err
	}

	u := w.user()
	return &u, nil
}

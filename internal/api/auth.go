package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// LoginError is returned by Login with a message meant for the learner.
type LoginError struct {
	Msg string
	Err error
}

func (e *LoginError) Error() string { return e.Msg }

func (e *LoginError) Unwrap() error { return e.Err }

// UserMessage implements the interface used by Message.
func (e *LoginError) UserMessage() string { return e.Msg }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token, stores it and returns the
// trainee profile.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	raw, err := c.fetch(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, loginFailure(err)
	}

	if err := validatePayload(loginSchema, raw); err != nil {
		return nil, &InvalidResponseError{Route: "POST /login", Body: raw, Err: err}
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &InvalidResponseError{Route: "POST /login", Body: raw, Err: err}
	}

	if err := c.store.SetToken(ctx, payload.Token); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	return c.CurrentUser(ctx)
}

// loginFailure maps a /login failure to the message shown on the login form.
func loginFailure(err error) error {
	var (
		unavail *ServiceUnavailableError
		netErr  *NetworkError
		httpErr *HTTPError
		authErr *AuthExpiredError
	)
	switch {
	case errors.As(err, &unavail):
		return &LoginError{Msg: "The server is temporarily unavailable. The firewall may be blocking requests; contact the backend team.", Err: err}
	case errors.As(err, &netErr):
		return err
	case errors.As(err, &httpErr) && httpErr.Message != "":
		return &LoginError{Msg: httpErr.Message, Err: err}
	case errors.As(err, &authErr):
		if msg := serverMessage(authErr.Body); msg != "" {
			return &LoginError{Msg: msg, Err: err}
		}
		return &LoginError{Msg: "Invalid email or password.", Err: err}
	}
	return &LoginError{Msg: "Login failed: " + Message(err), Err: err}
}

// Logout forgets the stored credential. No network call is made.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.ClearToken(ctx)
}

// IsAuthenticated reports whether a credential is stored.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	token, err := c.store.Token(ctx)
	return err == nil && token != ""
}

// CurrentUser fetches the connected trainee profile.
func (c *Client) CurrentUser(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.Request(ctx, http.MethodGet, "/jsp/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckTokenValidity asks the server whether the stored token still works.
func (c *Client) CheckTokenValidity(ctx context.Context) bool {
	_, err := c.CurrentUser(ctx)
	return err == nil
}

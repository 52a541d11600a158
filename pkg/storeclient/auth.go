package storeclient

import (
	"context"
	"net/http"

	"kidotrendz/storefront/internal/apierr"
)

type authResponse struct {
	User  UserSnapshot `json:"user"`
	Token string       `json:"token"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*UserSnapshot, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	user := resp.User
	c.session.set(&user, resp.Token)
	return c.session.User(), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*UserSnapshot, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	user := resp.User
	c.session.set(&user, resp.Token)
	return c.session.User(), nil
}

// Logout tears the session down locally no matter what the server says;
// the server call is best-effort revocation. The cart does not survive a
// logout. An in-flight refresh is allowed to settle; the clear below wins.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)

	c.cart.Clear()
	c.session.clear()

	if err != nil && !apierr.IsKind(err, apierr.KindUnauthorized) && !apierr.IsKind(err, apierr.KindUnauthenticated) {
		return err
	}
	return nil
}

// Restore resolves the persisted session at startup: no stored token means
// unauthenticated; a stored token is trusted only after a profile check.
// Exactly one resolution runs; re-entrant calls while validating return
// immediately.
func (c *Client) Restore(ctx context.Context) (SessionState, error) {
	if !c.session.beginChecking() {
		return c.session.State(), nil
	}
	defer c.session.endChecking()

	creds, err := c.session.store.Load()
	if err != nil || creds.Token == "" {
		c.session.clear()
		return SessionUnauthenticated, nil
	}

	c.session.mu.Lock()
	c.session.token = creds.Token
	c.session.user = creds.User
	c.session.state = SessionValidating
	c.session.mu.Unlock()

	var user UserSnapshot
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindUnauthorized, apierr.KindUnauthenticated:
			c.session.clear()
			return SessionUnauthenticated, nil
		default:
			// Transient failure: keep the persisted token for the next
			// start but treat this process as unauthenticated.
			c.session.mu.Lock()
			c.session.user = nil
			c.session.state = SessionUnauthenticated
			c.session.mu.Unlock()
			return SessionUnauthenticated, err
		}
	}

	c.session.set(&user, c.session.Token())
	return SessionAuthenticated, nil
}

// Profile fetches the current snapshot from the server and replaces the
// session's copy.
func (c *Client) Profile(ctx context.Context) (*UserSnapshot, error) {
	var user UserSnapshot
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	c.session.set(&user, c.session.Token())
	return c.session.User(), nil
}

// UpdateProfile sends a partial update; email is immutable server-side.
func (c *Client) UpdateProfile(ctx context.Context, updates map[string]any) (*UserSnapshot, error) {
	var user UserSnapshot
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, updates, &user); err != nil {
		return nil, err
	}
	c.session.set(&user, c.session.Token())
	return c.session.User(), nil
}

// Package storeclient is the Go client for the storefront API. It owns the
// session lifecycle: bearer injection, 401 interception, and single-flight
// token refresh, so callers never deal with authentication directly.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"kidotrendz/storefront/internal/apierr"
)

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	cart    *Cart

	// refreshGroup guarantees at most one in-flight refresh; every caller
	// that hits a 401 concurrently awaits the same call and its token.
	refreshGroup singleflight.Group
}

type Option func(*Client)

// WithCredentialStore replaces the default in-memory persistence.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *Client) {
		c.session = newSession(store)
	}
}

// WithHTTPClient substitutes the transport; a cookie jar is still required
// for the refresh cookie and is installed when missing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: newSession(&MemCredentialStore{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	c.cart = newCart(c)
	return c, nil
}

func (c *Client) Session() *Session { return c.session }
func (c *Client) Cart() *Cart       { return c.cart }

// httpError is a non-2xx response before taxonomy translation.
type httpError struct {
	Status int
	Msg    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Msg)
}

// do sends one API request with the current bearer token. A 401 on a
// request that carried a token triggers the refresh protocol exactly once,
// then one retry; a second 401 is terminal and clears the session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	token := c.session.Token()
	err := c.send(ctx, method, path, query, body, out, token)
	if err == nil {
		return nil
	}

	var herr *httpError
	if !errors.As(err, &herr) {
		return apierr.Transient("request failed", err)
	}
	if herr.Status != http.StatusUnauthorized || token == "" {
		return translateHTTP(herr, token != "")
	}

	newToken, err := c.refresh(ctx)
	if err != nil {
		return err
	}

	err = c.send(ctx, method, path, query, body, out, newToken)
	if err == nil {
		return nil
	}
	if errors.As(err, &herr) {
		if herr.Status == http.StatusUnauthorized {
			// Retried once already; give up and force a re-login.
			c.session.clear()
			return apierr.Unauthorized("session expired")
		}
		return translateHTTP(herr, true)
	}
	return apierr.Transient("request failed", err)
}

// refresh runs the single-flight refresh protocol. On failure the session
// is cleared inside the shared call, so N waiters observe exactly one
// clear and all of them receive Unauthorized. A clear that lands while the
// refresh is in flight wins: the refreshed token is discarded.
func (c *Client) refresh(ctx context.Context) (string, error) {
	// The flight is shared, so one waiter's cancellation must not fail the
	// refresh for the rest.
	refreshCtx := context.WithoutCancel(ctx)
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		gen := c.session.generation()
		var resp struct {
			Token string `json:"token"`
		}
		if err := c.send(refreshCtx, http.MethodPost, "/auth/refresh", nil, nil, &resp, ""); err != nil {
			c.session.clear()
			return nil, apierr.Wrap(apierr.KindUnauthorized, "token refresh failed", err)
		}
		if !c.session.setToken(resp.Token, gen) {
			return nil, apierr.Unauthorized("session closed during refresh")
		}
		return resp.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// send performs a single HTTP exchange without any retry logic.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, out any, token string) error {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &httpError{Status: resp.StatusCode, Msg: readErrorMessage(resp.Body)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "request failed"
}

// translateHTTP maps wire statuses onto the error taxonomy. hadToken
// distinguishes a rejected credential from a missing one.
func translateHTTP(herr *httpError, hadToken bool) error {
	switch {
	case herr.Status == http.StatusUnauthorized && !hadToken:
		return apierr.Unauthenticated(herr.Msg)
	case herr.Status == http.StatusUnauthorized, herr.Status == http.StatusForbidden:
		return apierr.Unauthorized(herr.Msg)
	case herr.Status == http.StatusBadRequest, herr.Status == http.StatusUnprocessableEntity:
		return apierr.InvalidArgument(herr.Msg)
	case herr.Status == http.StatusNotFound:
		return apierr.NotFound(herr.Msg)
	default:
		return apierr.Transient(herr.Msg, nil)
	}
}

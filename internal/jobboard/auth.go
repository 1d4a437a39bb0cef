package jobboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/session"
)

const (
	loginPath        = "/auth/login/"
	tokenRefreshPath = "/auth/token/refresh/"
)

type tokenResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    *session.User `json:"user"`
}

// Login exchanges credentials for tokens and populates the session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.User, error) {
	if c.session == nil {
		return nil, errors.New("session is required to login")
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := c.do(ctx, apiCall{method: http.MethodPost, path: loginPath, body: body, anonymous: true}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if resp.Access == "" {
		return nil, fmt.Errorf("login: %w: access token is missing", ErrNoData)
	}

	c.session.Populate(resp.Access, resp.Refresh, resp.User)
	if err := c.session.Save(); err != nil {
		return nil, err
	}

	return c.session.User(), nil
}

// Logout forgets the local credentials. The backend keeps no server side session to revoke.
func (c *Client) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}

func (c *Client) canRefresh() bool {
	return c.session != nil && c.session.Refresh() != ""
}

// refreshAccess obtains a new access token. A rejected refresh token clears the session.
func (c *Client) refreshAccess(ctx context.Context) error {
	c.logger.Debug("access token rejected, refreshing")

	body, err := json.Marshal(map[string]string{"refresh": c.session.Refresh()})
	if err != nil {
		return err
	}

	var resp tokenResponse
	data, err := c.roundTrip(ctx, apiCall{method: http.MethodPost, path: tokenRefreshPath, body: body, anonymous: true})
	if err == nil {
		err = unmarshal(data, &resp)
	}
	if err == nil && resp.Access == "" {
		err = ErrNoData
	}

	if err != nil {
		if cerr := c.session.Clear(); cerr != nil {
			c.logger.Warn("clearing expired session", zap.Error(cerr))
		}
		return fmt.Errorf("%w: session expired, login again (%v)", ErrUnauthorized, err)
	}

	refresh := resp.Refresh
	if refresh == "" {
		refresh = c.session.Refresh()
	}
	c.session.Populate(resp.Access, refresh, c.session.User())

	if err := c.session.Save(); err != nil {
		c.logger.Warn("saving refreshed session", zap.Error(err))
	}

	c.logger.Debug("access token refreshed")
	return nil
}

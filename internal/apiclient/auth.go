package apiclient

import (
	"context"
	"net/http"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login implements session.Authenticator. The refresh token arrives as a
// cookie and stays in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out.AccessToken, err
}

func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, &out)
	return out.AccessToken, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

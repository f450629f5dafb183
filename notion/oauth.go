package notion

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// oauthReq builds a request authenticated with the integration's
// client credentials instead of the bearer token.
func (c *Client) oauthReq(clientID, clientSecret string) *resty.Request {
	return c.oauth.R().SetError(&apiError{}).SetBasicAuth(clientID, clientSecret)
}

// CreateToken exchanges an OAuth authorization code for an access
// token. redirectURI may be empty when a single redirect URI is
// configured for the integration.
func (c *Client) CreateToken(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*TokenResponse, error) {
	payload := map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	}
	if redirectURI != "" {
		payload["redirect_uri"] = redirectURI
	}

	var token TokenResponse
	resp, err := c.oauthReq(clientID, clientSecret).
		SetContext(ctx).
		SetBody(payload).
		SetResult(&token).
		Post("/v1/oauth/token")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &token, nil
}

// IntrospectToken reports a token's active status, scope and issue
// time.
func (c *Client) IntrospectToken(ctx context.Context, clientID, clientSecret, token string) (*IntrospectTokenResponse, error) {
	var result IntrospectTokenResponse
	resp, err := c.oauthReq(clientID, clientSecret).
		SetContext(ctx).
		SetBody(map[string]string{"token": token}).
		SetResult(&result).
		Post("/v1/oauth/introspect")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

// RevokeToken revokes an access token.
func (c *Client) RevokeToken(ctx context.Context, clientID, clientSecret, token string) (*RevokeTokenResponse, error) {
	var result RevokeTokenResponse
	resp, err := c.oauthReq(clientID, clientSecret).
		SetContext(ctx).
		SetBody(map[string]string{"token": token}).
		SetResult(&result).
		Post("/v1/oauth/revoke")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshToken exchanges a refresh token for new access and refresh
// tokens.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	payload := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}

	var token TokenResponse
	resp, err := c.oauthReq(clientID, clientSecret).
		SetContext(ctx).
		SetBody(payload).
		SetResult(&token).
		Post("/v1/oauth/token")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &token, nil
}

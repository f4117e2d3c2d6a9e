package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL  = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL = "https://securetoken.googleapis.com"
)

// tokenGrant is what every successful sign-in, sign-up, profile update or
// refresh hands back.
type tokenGrant struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type profileRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// accountResponse covers accounts:signUp, accounts:signInWithPassword and
// accounts:update.
type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// refreshResponse is the Secure Token API's snake_case reply.
type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

func expiryFrom(now time.Time, expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return now.Add(time.Duration(secs) * time.Second)
}

func (c *Client) signUpWithPassword(ctx context.Context, email, password string) (tokenGrant, error) {
	return c.accountCall(ctx, "sign up", "/v1/accounts:signUp", passwordRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	})
}

func (c *Client) signInWithPassword(ctx context.Context, email, password string) (tokenGrant, error) {
	return c.accountCall(ctx, "sign in", "/v1/accounts:signInWithPassword", passwordRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	})
}

func (c *Client) updateDisplayName(ctx context.Context, idToken, name string) (tokenGrant, error) {
	return c.accountCall(ctx, "update profile", "/v1/accounts:update", profileRequest{
		IDToken: idToken, DisplayName: name, ReturnSecureToken: true,
	})
}

func (c *Client) accountCall(ctx context.Context, op, path string, body any) (tokenGrant, error) {
	var out accountResponse
	var fail errorBody

	resp, err := c.toolkit.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&fail).
		Post(path)
	if err := classify(op, resp, err, &fail); err != nil {
		return tokenGrant{}, err
	}
	if out.LocalID == "" || out.IDToken == "" {
		return tokenGrant{}, fmt.Errorf("identity: %s: incomplete response: %w", op, ErrProviderUnavailable)
	}

	return tokenGrant{
		UID:          out.LocalID,
		Email:        out.Email,
		DisplayName:  out.DisplayName,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    expiryFrom(c.now(), out.ExpiresIn),
	}, nil
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (tokenGrant, error) {
	var out refreshResponse
	var fail errorBody

	resp, err := c.secureToken.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&out).
		SetError(&fail).
		Post("/v1/token")
	if err := classify("refresh", resp, err, &fail); err != nil {
		return tokenGrant{}, err
	}
	if out.IDToken == "" {
		return tokenGrant{}, fmt.Errorf("identity: refresh: incomplete response: %w", ErrProviderUnavailable)
	}

	return tokenGrant{
		UID:          out.UserID,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    expiryFrom(c.now(), out.ExpiresIn),
	}, nil
}

// classify turns a resty outcome into nil, a transport failure, or a
// *ServiceError.
func classify(op string, resp *resty.Response, err error, fail *errorBody) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("identity: %s: %w: %w", op, ErrProviderUnavailable, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	return newServiceError(op, resp.StatusCode(), fail)
}

package budgetsdk

import (
	"net/http"

	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/go-resty/resty/v2"
)

// authorize attaches the stored token, if any, and the inbound request ID.
func (c *Client) authorize(_ *resty.Client, r *resty.Request) error {
	if tok, ok := c.creds.Get(); ok {
		r.SetHeader("Authorization", "Bearer "+tok)
	}
	if id := slogx.RequestID(r.Context()); id != "" {
		r.SetHeader("X-Request-ID", id)
	}
	return nil
}

// handleUnauthorized turns any 401 into a sign-out: clear the credentials,
// navigate to the login page, then fail the call. The navigation happens
// before the caller sees the error.
func (c *Client) handleUnauthorized(_ *resty.Client, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusUnauthorized {
		return nil
	}

	req := resp.Request
	path := req.URL
	if req.RawRequest != nil {
		path = req.RawRequest.URL.Path
	}

	slogx.FromContext(req.Context()).Warn("api rejected credentials, signing out",
		"method", req.Method, "path", path)

	c.creds.Clear()
	c.nav.Navigate(req.Context(), LoginPath)

	return &APIError{
		Method:     req.Method,
		Path:       path,
		StatusCode: resp.StatusCode(),
		Detail:     detailFrom(resp.Body()),
		kind:       ErrUnauthorized,
	}
}

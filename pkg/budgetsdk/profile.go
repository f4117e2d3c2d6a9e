package budgetsdk

import (
	"context"
	"net/http"
)

// GetProfile returns the user as the API sees them.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var out Profile
	if err := c.get(ctx, "/auth/user", &out); err != nil {
		return Profile{}, err
	}
	if out.UID == "" {
		return Profile{}, malformed(http.MethodGet, "/auth/user", "missing uid")
	}
	return out, nil
}

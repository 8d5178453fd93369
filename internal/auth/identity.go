package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/learnloop/internal/apperror"
)

// ExternalIdentity is the profile the identity service returns for a
// completed federated sign-in, together with the session token it already
// issued. We store that token verbatim; the provider owns its format.
type ExternalIdentity struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// IdentityClient talks to the external identity service that fronts
// federated sign-in. The browser completes the provider flow there and is
// handed an opaque session-exchange id; this client trades that id for the
// profile and token.
type IdentityClient struct {
	baseURL string
	client  *http.Client
}

// NewIdentityClient creates a client for the identity service at baseURL.
func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Exchange trades a session-exchange id for the signed-in profile.
// An unreachable service or non-200 response surfaces as Unavailable.
func (c *IdentityClient) Exchange(ctx context.Context, sessionID string) (*ExternalIdentity, error) {
	if c.baseURL == "" {
		return nil, apperror.Unavailable("identity", "identity service not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/env/oauth/session-data", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building identity request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.Unavailable("identity", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Unavailable("identity", fmt.Sprintf("exchange returned status %d", resp.StatusCode))
	}

	var identity ExternalIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("auth: decoding identity response: %w", err)
	}
	if identity.Email == "" || identity.SessionToken == "" {
		return nil, fmt.Errorf("auth: identity service returned an incomplete profile")
	}

	return &identity, nil
}

package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/cartsmith/authkit"
)

const (
	authBasePath     = "/auth/v1"
	maxResponseBytes = 1 << 20

	defaultHTTPTimeout = 10 * time.Second
)

// REST defines a public type used by authkit APIs.
//
// REST instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type REST struct {
	base   string
	apiKey string
	http   *http.Client
	log    zerolog.Logger
}

var _ authkit.IdentityProvider = (*REST)(nil)

// NewREST describes the newrest operation and its observable behavior.
//
// NewREST builds an adapter for a hosted Supabase-style auth API. BaseURL is
// the project root without the /auth/v1 suffix. A zero Timeout falls back to
// ten seconds.
func NewREST(cfg authkit.ProviderConfig, log zerolog.Logger) *REST {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &REST{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
		log:    log,
	}
}

// SignInWithPassword describes the signinwithpassword operation and its observable behavior.
//
// It may return an error when the provider rejects the credentials or when the
// request cannot be completed.
func (c *REST) SignInWithPassword(ctx context.Context, email, password string) (*authkit.ProviderSession, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}
	return decodeSession(body)
}

// SignUp describes the signup operation and its observable behavior.
//
// Deployments that require email confirmation answer with a bare user and no
// tokens; the returned session is then invalid, not an error.
func (c *REST) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authkit.ProviderSession, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/signup", "", payload)
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		return nil, authkit.DecodeProviderError(status, body)
	}

	root := gjson.ParseBytes(body)
	if root.Get("access_token").Exists() {
		return decodeSession(body)
	}
	// Confirmation pending: the body is the user object itself.
	return &authkit.ProviderSession{User: decodeUser(root)}, nil
}

// OAuthAuthorizeURL describes the oauthauthorizeurl operation and its observable behavior.
//
// The URL is constructed locally; no request leaves the process. A fresh PKCE
// verifier is minted per call and its S256 challenge is bound into the URL.
func (c *REST) OAuthAuthorizeURL(ctx context.Context, provider, redirectTo string) (*authkit.OAuthRedirect, error) {
	if provider == "" {
		return nil, fmt.Errorf("oauth provider name required")
	}

	verifier := oauth2.GenerateVerifier()

	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	q.Set("code_challenge_method", "s256")

	return &authkit.OAuthRedirect{
		URL:      c.base + authBasePath + "/authorize?" + q.Encode(),
		Verifier: verifier,
	}, nil
}

// ExchangeCode describes the exchangecode operation and its observable behavior.
//
// One code is good for one exchange; the provider invalidates it regardless of
// outcome, so callers must not retry a failed exchange with the same code.
func (c *REST) ExchangeCode(ctx context.Context, code, verifier string) (*authkit.ProviderSession, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/token?grant_type=pkce", "", map[string]any{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}
	return decodeSession(body)
}

// Refresh describes the refresh operation and its observable behavior.
//
// It may return an error when the token was revoked or already rotated.
func (c *REST) Refresh(ctx context.Context, refreshToken string) (*authkit.ProviderSession, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", map[string]any{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}
	return decodeSession(body)
}

// ActiveSession reports no session. The REST transport is stateless; any
// session this process holds was minted through an explicit operation and is
// already in the client's own store.
func (c *REST) ActiveSession(ctx context.Context) (*authkit.ProviderSession, error) {
	return nil, nil
}

// SignOut describes the signout operation and its observable behavior.
//
// It revokes the refresh token family behind the access token.
func (c *REST) SignOut(ctx context.Context, accessToken string) error {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	if !ok2xx(status) {
		return authkit.DecodeProviderError(status, body)
	}
	return nil
}

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// The provider answers 200 whether or not the email is registered.
func (c *REST) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, path, "", map[string]any{
		"email": email,
	})
	if err != nil {
		return err
	}
	if !ok2xx(status) {
		return authkit.DecodeProviderError(status, body)
	}
	return nil
}

// VerifyOTP describes the verifyotp operation and its observable behavior.
//
// It may return an error when the token expired or was already consumed.
func (c *REST) VerifyOTP(ctx context.Context, req authkit.OTPVerification) (*authkit.ProviderSession, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/verify", "", map[string]any{
		"email": req.Email,
		"token": req.Token,
		"type":  string(req.Type),
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}
	return decodeSession(body)
}

// UpdateUser describes the updateuser operation and its observable behavior.
//
// Only fields set in the update are sent; the provider leaves the rest alone.
func (c *REST) UpdateUser(ctx context.Context, accessToken string, update authkit.UserUpdate) (*authkit.User, error) {
	payload := map[string]any{}
	if update.Email != "" {
		payload["email"] = update.Email
	}
	if update.Password != "" {
		payload["password"] = update.Password
	}
	if len(update.Metadata) > 0 {
		payload["data"] = update.Metadata
	}

	body, status, err := c.doJSON(ctx, http.MethodPut, "/user", accessToken, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}

	user := decodeUser(gjson.ParseBytes(body))
	if user == nil {
		return nil, fmt.Errorf("provider returned no user in update response")
	}
	return user, nil
}

// EnrollFactor describes the enrollfactor operation and its observable behavior.
//
// The provision carries the shared secret exactly once; it cannot be read
// back later.
func (c *REST) EnrollFactor(ctx context.Context, accessToken, friendlyName string) (*authkit.FactorProvision, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/factors", accessToken, map[string]any{
		"factor_type":   "totp",
		"friendly_name": friendlyName,
	})
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		return nil, authkit.DecodeProviderError(status, body)
	}

	root := gjson.ParseBytes(body)
	return &authkit.FactorProvision{
		FactorID:     root.Get("id").Str,
		FactorType:   root.Get("type").Str,
		Secret:       root.Get("totp.secret").Str,
		URI:          root.Get("totp.uri").Str,
		FriendlyName: root.Get("friendly_name").Str,
	}, nil
}

// ChallengeFactor describes the challengefactor operation and its observable behavior.
//
// The challenge is short-lived; the provider reports its expiry as a unix
// timestamp.
func (c *REST) ChallengeFactor(ctx context.Context, accessToken, factorID string) (*authkit.MfaChallenge, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/factors/"+url.PathEscape(factorID)+"/challenge", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		return nil, authkit.DecodeProviderError(status, body)
	}

	root := gjson.ParseBytes(body)
	challenge := &authkit.MfaChallenge{
		ID:       root.Get("id").Str,
		FactorID: factorID,
	}
	if at := root.Get("expires_at"); at.Exists() {
		challenge.ExpiresAt = time.Unix(at.Int(), 0)
	}
	return challenge, nil
}

// VerifyFactor describes the verifyfactor operation and its observable behavior.
//
// A correct code mints a fresh token pair at the elevated assurance level.
func (c *REST) VerifyFactor(ctx context.Context, accessToken, factorID, challengeID, code string) (*authkit.ProviderSession, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/factors/"+url.PathEscape(factorID)+"/verify", accessToken, map[string]any{
		"challenge_id": challengeID,
		"code":         code,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}
	return decodeSession(body)
}

// UnenrollFactor describes the unenrollfactor operation and its observable behavior.
//
// Removing the last verified factor lowers the assurance level of future
// tokens; already-issued tokens are untouched by the provider.
func (c *REST) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	body, status, err := c.doJSON(ctx, http.MethodDelete, "/factors/"+url.PathEscape(factorID), accessToken, nil)
	if err != nil {
		return err
	}
	if !ok2xx(status) {
		return authkit.DecodeProviderError(status, body)
	}
	return nil
}

// ListFactors describes the listfactors operation and its observable behavior.
//
// The hosted API reports factors inline on the user object rather than on a
// collection endpoint.
func (c *REST) ListFactors(ctx context.Context, accessToken string) ([]authkit.MfaFactor, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, authkit.DecodeProviderError(status, body)
	}

	var factors []authkit.MfaFactor
	gjson.GetBytes(body, "factors").ForEach(func(_, item gjson.Result) bool {
		factor := authkit.MfaFactor{
			ID:           item.Get("id").Str,
			Type:         item.Get("factor_type").Str,
			Status:       item.Get("status").Str,
			FriendlyName: item.Get("friendly_name").Str,
		}
		if at, err := time.Parse(time.RFC3339, item.Get("created_at").Str); err == nil {
			factor.CreatedAt = at
		}
		if at, err := time.Parse(time.RFC3339, item.Get("updated_at").Str); err == nil {
			factor.UpdatedAt = at
		}
		factors = append(factors, factor)
		return true
	})
	return factors, nil
}

// doJSON performs one request against the auth API. The returned error is
// non-nil only for transport-level failures; provider responses come back as
// body plus status for the caller to judge.
func (c *REST) doJSON(ctx context.Context, method, path, token string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+authBasePath+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("apikey", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", authkit.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading response: %v", authkit.ErrProviderUnavailable, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("provider request")

	return raw, resp.StatusCode, nil
}

func ok2xx(status int) bool {
	return status >= 200 && status < 300
}

// decodeSession maps a token-bearing provider response onto a ProviderSession.
func decodeSession(body []byte) (*authkit.ProviderSession, error) {
	root := gjson.ParseBytes(body)

	access := root.Get("access_token").Str
	refresh := root.Get("refresh_token").Str
	if access == "" || refresh == "" {
		return nil, fmt.Errorf("provider response missing token pair")
	}

	ps := &authkit.ProviderSession{
		Session: authkit.Session{
			AccessToken:  access,
			RefreshToken: refresh,
		},
		User: decodeUser(root.Get("user")),
	}

	switch {
	case root.Get("expires_at").Exists():
		ps.Session.ExpiresAt = time.Unix(root.Get("expires_at").Int(), 0)
	case root.Get("expires_in").Exists():
		ps.Session.ExpiresAt = time.Now().Add(time.Duration(root.Get("expires_in").Int()) * time.Second)
	}

	return ps, nil
}

// decodeUser maps a provider user object onto a User. Returns nil when the
// value is absent or carries no id.
func decodeUser(res gjson.Result) *authkit.User {
	if !res.Exists() {
		return nil
	}

	id := res.Get("id").Str
	if id == "" {
		return nil
	}

	user := &authkit.User{
		ID:             id,
		Email:          res.Get("email").Str,
		EmailConfirmed: res.Get("email_confirmed_at").Str != "",
	}
	if meta, ok := res.Get("user_metadata").Value().(map[string]any); ok {
		user.Metadata = meta
	}
	if at, err := time.Parse(time.RFC3339, res.Get("created_at").Str); err == nil {
		user.CreatedAt = at
	}
	return user
}

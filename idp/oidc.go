package idp

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/cartsmith/authkit"
)

// OIDCConfig defines a public type used by authkit APIs.
//
// OIDCConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OIDCConfig struct {
	// Issuer is the provider base URL; discovery runs against
	// issuer + "/.well-known/openid-configuration".
	Issuer string

	ClientID     string
	ClientSecret string

	// RedirectURL is the default callback; a per-call redirect passed to
	// OAuthAuthorizeURL overrides it.
	RedirectURL string

	// Scopes defaults to openid, profile, email and offline_access.
	Scopes []string
}

// OIDC drives a standards-compliant OpenID Connect provider. Only the
// authorization-code flow, token refresh and ID-token claims are available;
// every hosted-API operation reports ErrProviderUnsupported.
type OIDC struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	conf     oauth2.Config
	log      zerolog.Logger
}

var _ authkit.IdentityProvider = (*OIDC)(nil)

// NewOIDC describes the newoidc operation and its observable behavior.
//
// It runs discovery against the issuer before returning; a provider that
// cannot be reached surfaces as ErrProviderUnavailable.
func NewOIDC(ctx context.Context, cfg OIDCConfig, log zerolog.Logger) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: oidc discovery: %v", authkit.ErrProviderUnavailable, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	return &OIDC{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		log: log,
	}, nil
}

// OAuthAuthorizeURL describes the oauthauthorizeurl operation and its observable behavior.
//
// The provider name is ignored; the issuer was fixed at construction. State
// is not echo-checked by this client, PKCE binds the code to the stored
// verifier instead.
func (c *OIDC) OAuthAuthorizeURL(ctx context.Context, provider, redirectTo string) (*authkit.OAuthRedirect, error) {
	conf := c.conf
	if redirectTo != "" {
		conf.RedirectURL = redirectTo
	}

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	return &authkit.OAuthRedirect{
		URL:      conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)),
		Verifier: verifier,
	}, nil
}

// ExchangeCode describes the exchangecode operation and its observable behavior.
//
// The ID token in the response is verified against the issuer's keys before
// any claim is trusted. A response without an ID token is rejected.
func (c *OIDC) ExchangeCode(ctx context.Context, code, verifier string) (*authkit.ProviderSession, error) {
	token, err := c.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, oauthErr(err)
	}
	return c.sessionFromToken(ctx, token, true)
}

// Refresh describes the refresh operation and its observable behavior.
//
// Providers that rotate refresh tokens return a replacement; ones that do not
// keep the presented token valid, so it is carried forward.
func (c *OIDC) Refresh(ctx context.Context, refreshToken string) (*authkit.ProviderSession, error) {
	token, err := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, oauthErr(err)
	}

	ps, err := c.sessionFromToken(ctx, token, false)
	if err != nil {
		return nil, err
	}
	if ps.Session.RefreshToken == "" {
		ps.Session.RefreshToken = refreshToken
	}
	return ps, nil
}

// ActiveSession reports no session; OIDC has no ambient-session concept on
// the relying-party side.
func (c *OIDC) ActiveSession(ctx context.Context) (*authkit.ProviderSession, error) {
	return nil, nil
}

// SignOut is a no-op. OIDC end-session support varies by provider; dropping
// the refresh token locally stops rotation and the access token ages out.
func (c *OIDC) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

// SignInWithPassword is not part of the OIDC surface.
func (c *OIDC) SignInWithPassword(ctx context.Context, email, password string) (*authkit.ProviderSession, error) {
	return nil, unsupported("password sign-in")
}

// SignUp is not part of the OIDC surface.
func (c *OIDC) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authkit.ProviderSession, error) {
	return nil, unsupported("sign-up")
}

// RequestPasswordReset is not part of the OIDC surface.
func (c *OIDC) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return unsupported("password reset")
}

// VerifyOTP is not part of the OIDC surface.
func (c *OIDC) VerifyOTP(ctx context.Context, req authkit.OTPVerification) (*authkit.ProviderSession, error) {
	return nil, unsupported("otp verification")
}

// UpdateUser is not part of the OIDC surface.
func (c *OIDC) UpdateUser(ctx context.Context, accessToken string, update authkit.UserUpdate) (*authkit.User, error) {
	return nil, unsupported("user update")
}

// EnrollFactor is not part of the OIDC surface.
func (c *OIDC) EnrollFactor(ctx context.Context, accessToken, friendlyName string) (*authkit.FactorProvision, error) {
	return nil, unsupported("factor enrollment")
}

// ChallengeFactor is not part of the OIDC surface.
func (c *OIDC) ChallengeFactor(ctx context.Context, accessToken, factorID string) (*authkit.MfaChallenge, error) {
	return nil, unsupported("factor challenge")
}

// VerifyFactor is not part of the OIDC surface.
func (c *OIDC) VerifyFactor(ctx context.Context, accessToken, factorID, challengeID, code string) (*authkit.ProviderSession, error) {
	return nil, unsupported("factor verification")
}

// UnenrollFactor is not part of the OIDC surface.
func (c *OIDC) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	return unsupported("factor unenrollment")
}

// ListFactors is not part of the OIDC surface.
func (c *OIDC) ListFactors(ctx context.Context, accessToken string) ([]authkit.MfaFactor, error) {
	return nil, unsupported("factor listing")
}

func (c *OIDC) sessionFromToken(ctx context.Context, token *oauth2.Token, requireIDToken bool) (*authkit.ProviderSession, error) {
	ps := &authkit.ProviderSession{
		Session: authkit.Session{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.Expiry,
		},
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		if requireIDToken {
			return nil, fmt.Errorf("provider response missing id_token")
		}
		return ps, nil
	}

	idToken, err := c.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("id_token verification: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("id_token claims: %w", err)
	}

	ps.User = &authkit.User{
		ID:             idToken.Subject,
		Email:          claims.Email,
		EmailConfirmed: claims.EmailVerified,
	}
	return ps, nil
}

// oauthErr maps oauth2 transport errors onto the client's two failure shapes.
func oauthErr(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) && retrieve.Response != nil {
		return authkit.DecodeProviderError(retrieve.Response.StatusCode, retrieve.Body)
	}
	return fmt.Errorf("%w: %v", authkit.ErrProviderUnavailable, err)
}

func unsupported(op string) error {
	return fmt.Errorf("%w: %s requires the hosted auth API", authkit.ErrProviderUnsupported, op)
}

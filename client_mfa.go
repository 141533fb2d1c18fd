package authkit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cartsmith/authkit/session"
)

// EnrollMFA describes the enrollmfa operation and its observable behavior.
//
// EnrollMFA may return an error when input validation, dependency calls, or security checks fail.
// EnrollMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) EnrollMFA(ctx context.Context, req EnrollMFARequest) (*MfaEnrollment, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	provision, err := c.provider.EnrollFactor(ctx, tok, req.FriendlyName)
	if err != nil {
		wrapped := wrapProvider(ErrMfaEnroll, err)
		c.metricInc(MetricMfaEnrollFailure)
		c.emitAudit(ctx, auditEventMfaEnrollFailure, false, c.currentUserID(), "", "", wrapped, nil)
		return nil, wrapped
	}
	if provision == nil || provision.FactorID == "" {
		c.metricInc(MetricMfaEnrollFailure)
		return nil, fmt.Errorf("%w: provider returned no factor", ErrMfaEnroll)
	}

	uri := provision.URI
	if uri == "" {
		uri = c.otpauthURI(c.mfaAccountLabel(), provision.Secret)
	}

	c.metricInc(MetricMfaEnrollSuccess)
	c.emitAudit(ctx, auditEventMfaEnrolled, true, c.currentUserID(), "", "", nil, func() map[string]string {
		return map[string]string{
			"factor_id":   provision.FactorID,
			"factor_type": provision.FactorType,
		}
	})

	return &MfaEnrollment{
		FactorID:  provision.FactorID,
		Secret:    provision.Secret,
		QRPayload: uri,
	}, nil
}

// ChallengeMFA describes the challengemfa operation and its observable behavior.
//
// ChallengeMFA may return an error when input validation, dependency calls, or security checks fail.
// ChallengeMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ChallengeMFA(ctx context.Context, factorID string) (*MfaChallenge, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	challenge, err := c.provider.ChallengeFactor(ctx, tok, factorID)
	if err != nil {
		wrapped := wrapProvider(ErrMfaChallenge, err)
		c.metricInc(MetricMfaChallengeFailure)
		c.emitAudit(ctx, auditEventMfaChallenge, false, c.currentUserID(), "", "", wrapped, nil)
		return nil, wrapped
	}
	if challenge == nil || challenge.ID == "" {
		c.metricInc(MetricMfaChallengeFailure)
		return nil, fmt.Errorf("%w: provider returned no challenge", ErrMfaChallenge)
	}

	c.metricInc(MetricMfaChallengeSuccess)
	c.emitAudit(ctx, auditEventMfaChallenge, true, c.currentUserID(), "", "", nil, func() map[string]string {
		return map[string]string{"factor_id": factorID}
	})

	return challenge, nil
}

// VerifyMFA describes the verifymfa operation and its observable behavior.
//
// VerifyMFA may return an error when input validation, dependency calls, or security checks fail.
// VerifyMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) VerifyMFA(ctx context.Context, factorID, challengeID, code string) (*SessionInfo, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	ps, err := c.provider.VerifyFactor(ctx, tok, factorID, challengeID, code)
	if err != nil {
		wrapped := wrapProvider(ErrMfaInvalidCode, err)
		c.metricInc(MetricMfaVerifyFailure)
		c.emitAudit(ctx, auditEventMfaVerifyFailure, false, c.currentUserID(), "", "", wrapped, func() map[string]string {
			return map[string]string{"factor_id": factorID}
		})
		return nil, wrapped
	}
	if ps == nil || !ps.Session.Valid() {
		c.metricInc(MetricMfaVerifyFailure)
		return nil, fmt.Errorf("%w: provider returned no session", ErrMfaInvalidCode)
	}

	// Verification mints elevated tokens; they replace the current session.
	s := c.adoptProviderSession(ctx, ps, true)

	c.metricInc(MetricMfaVerifySuccess)
	c.emitAudit(ctx, auditEventMfaVerified, true, userIDOf(ps), "", "", nil, func() map[string]string {
		return map[string]string{"factor_id": factorID}
	})

	info := c.sessionInfo(s)
	return &info, nil
}

// UnenrollMFA describes the unenrollmfa operation and its observable behavior.
//
// UnenrollMFA may return an error when input validation, dependency calls, or security checks fail.
// UnenrollMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UnenrollMFA(ctx context.Context, factorID string) error {
	if c == nil || c.provider == nil {
		return ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	if err := c.provider.UnenrollFactor(ctx, tok, factorID); err != nil {
		wrapped := wrapProvider(ErrMfaUnenroll, err)
		c.metricInc(MetricMfaUnenrollFailure)
		c.emitAudit(ctx, auditEventMfaUnenrollFailure, false, c.currentUserID(), "", "", wrapped, func() map[string]string {
			return map[string]string{"factor_id": factorID}
		})
		return wrapped
	}

	c.metricInc(MetricMfaUnenrollSuccess)
	c.emitAudit(ctx, auditEventMfaUnenrolled, true, c.currentUserID(), "", "", nil, func() map[string]string {
		return map[string]string{"factor_id": factorID}
	})

	// Tokens minted before unenrollment still carry the old assurance level.
	// The forced refresh is best effort; unenrollment itself already stuck.
	if s, had := c.snapshot(); had {
		refreshed := c.gate.runBypassCooldown(ctx, func(ctx context.Context) (*session.Session, error) {
			return c.refreshOnce(ctx, s.RefreshToken)
		})
		if refreshed == nil {
			c.log.Warn().Str("factor_id", factorID).Msg("post-unenroll refresh did not complete")
		}
	}

	return nil
}

// ListMFAFactors describes the listmfafactors operation and its observable behavior.
//
// ListMFAFactors may return an error when input validation, dependency calls, or security checks fail.
// ListMFAFactors does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ListMFAFactors(ctx context.Context) ([]MfaFactor, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	factors, err := c.provider.ListFactors(ctx, tok)
	if err != nil {
		return nil, wrapProvider(ErrMfaList, err)
	}
	return factors, nil
}

// otpauthURI builds a provisioning URI for factors whose provider response
// omitted one. Parameters matching the otpauth defaults (SHA1, 6 digits,
// 30 seconds) stay implicit.
func (c *Client) otpauthURI(account, secret string) string {
	mfa := c.config.Mfa
	label := url.PathEscape(mfa.Issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", mfa.Issuer)
	if !strings.EqualFold(mfa.Algorithm, "SHA1") {
		v.Set("algorithm", strings.ToUpper(mfa.Algorithm))
	}
	if mfa.Digits != 6 {
		v.Set("digits", strconv.Itoa(mfa.Digits))
	}
	if mfa.Period != 30 {
		v.Set("period", strconv.Itoa(mfa.Period))
	}

	return "otpauth://totp/" + label + "?" + v.Encode()
}

func (c *Client) mfaAccountLabel() string {
	c.mu.RLock()
	u := c.user
	c.mu.RUnlock()

	if u != nil && u.Email != "" {
		return u.Email
	}
	if u != nil && u.ID != "" {
		return u.ID
	}
	return "user"
}

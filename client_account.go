package authkit

import (
	"context"
	"fmt"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if c == nil || c.provider == nil {
		return ErrClientNotReady
	}

	if err := c.provider.RequestPasswordReset(ctx, email, c.config.Provider.RedirectURL); err != nil {
		wrapped := wrapProvider(ErrPasswordResetFailed, err)
		c.emitAudit(ctx, auditEventPasswordResetRequest, false, "", "", "", wrapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return wrapped
	}

	c.metricInc(MetricPasswordResetRequested)
	c.emitAudit(ctx, auditEventPasswordResetRequest, true, "", "", "", nil, func() map[string]string {
		return map[string]string{"email": email}
	})
	return nil
}

// UpdatePassword describes the updatepassword operation and its observable behavior.
//
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
// UpdatePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	if c == nil || c.provider == nil {
		return ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	user, err := c.provider.UpdateUser(ctx, tok, UserUpdate{Password: newPassword})
	if err != nil {
		wrapped := wrapProvider(ErrPasswordUpdateFailed, err)
		c.emitAudit(ctx, auditEventPasswordUpdated, false, c.currentUserID(), "", "", wrapped, nil)
		return wrapped
	}

	c.cacheUser(user)
	c.metricInc(MetricPasswordUpdated)
	c.emitAudit(ctx, auditEventPasswordUpdated, true, c.currentUserID(), "", "", nil, nil)
	return nil
}

// VerifyEmailOTP describes the verifyemailotp operation and its observable behavior.
//
// VerifyEmailOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmailOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) VerifyEmailOTP(ctx context.Context, req OTPVerification) (*SessionInfo, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	if req.Email == "" || req.Token == "" {
		return nil, fmt.Errorf("%w: email and token required", ErrOTPVerification)
	}
	if req.Type == "" {
		req.Type = OTPTypeEmail
	}

	ps, err := c.provider.VerifyOTP(ctx, req)
	if err != nil {
		wrapped := wrapProvider(ErrOTPVerification, err)
		c.metricInc(MetricOtpVerifyFailure)
		c.emitAudit(ctx, auditEventOtpVerifyFailure, false, "", "", "", wrapped, func() map[string]string {
			return map[string]string{"email": req.Email, "otp_type": string(req.Type)}
		})
		return nil, wrapped
	}

	c.metricInc(MetricOtpVerifySuccess)
	c.emitAudit(ctx, auditEventOtpVerified, true, userIDOf(ps), "", "", nil, func() map[string]string {
		return map[string]string{"email": req.Email, "otp_type": string(req.Type)}
	})

	if ps == nil || !ps.Session.Valid() {
		return nil, nil
	}

	s := c.adoptProviderSession(ctx, ps, true)
	c.upsertProfile(ctx, ps.User)

	info := c.sessionInfo(s)
	return &info, nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UpdateProfile(ctx context.Context, update UserUpdate) (*User, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	tok, ok := c.accessToken(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	user, err := c.provider.UpdateUser(ctx, tok, update)
	if err != nil {
		wrapped := wrapProvider(ErrProfileUpdateFailed, err)
		c.emitAudit(ctx, auditEventProfileUpdated, false, c.currentUserID(), "", "", wrapped, nil)
		return nil, wrapped
	}
	if user == nil {
		return nil, fmt.Errorf("%w: provider returned no user", ErrProfileUpdateFailed)
	}

	c.cacheUser(user)
	c.upsertProfile(ctx, user)
	c.metricInc(MetricProfileUpdated)
	c.emitAudit(ctx, auditEventProfileUpdated, true, user.ID, "", "", nil, nil)

	cp := *user
	return &cp, nil
}

func (c *Client) cacheUser(u *User) {
	if u == nil {
		return
	}
	c.mu.Lock()
	cp := *u
	c.user = &cp
	c.mu.Unlock()
}

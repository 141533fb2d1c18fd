package authkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignInSuccess        = "sign_in_success"
	auditEventSignInFailure        = "sign_in_failure"
	auditEventSignUpSuccess        = "sign_up_success"
	auditEventSignUpFailure        = "sign_up_failure"
	auditEventSignOut              = "sign_out"
	auditEventSessionRestored      = "session_restored"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventOAuthInitiated       = "oauth_initiated"
	auditEventOAuthInitFailure     = "oauth_init_failure"
	auditEventOAuthCallbackSuccess = "oauth_callback_success"
	auditEventOAuthCallbackFailure = "oauth_callback_failure"
	auditEventOAuthSessionAdopted  = "oauth_session_adopted"
	auditEventMfaEnrolled          = "mfa_factor_enrolled"
	auditEventMfaEnrollFailure     = "mfa_enroll_failure"
	auditEventMfaChallenge         = "mfa_challenge"
	auditEventMfaVerified          = "mfa_verified"
	auditEventMfaVerifyFailure     = "mfa_verify_failure"
	auditEventMfaUnenrolled        = "mfa_factor_unenrolled"
	auditEventOtpVerified          = "otp_verified"
	auditEventOtpVerifyFailure     = "otp_verify_failure"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordUpdated      = "password_updated"
	auditEventProfileUpdated       = "profile_updated"
	auditEventProfileUpsertFailure = "profile_upsert_failure"
)

// AuditErrorCode defines a public type used by authkit APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrSignUpRejected      AuditErrorCode = "sign_up_rejected"
	auditErrNotAuthenticated    AuditErrorCode = "not_authenticated"
	auditErrRefreshRejected     AuditErrorCode = "refresh_rejected"
	auditErrOAuthInitiation     AuditErrorCode = "oauth_initiation_failed"
	auditErrOAuthMissingCode    AuditErrorCode = "oauth_missing_code"
	auditErrOAuthStateLost      AuditErrorCode = "oauth_state_lost"
	auditErrOAuthExchange       AuditErrorCode = "oauth_exchange_failed"
	auditErrMfaEnroll           AuditErrorCode = "mfa_enroll_failed"
	auditErrMfaChallenge        AuditErrorCode = "mfa_challenge_failed"
	auditErrMfaInvalid          AuditErrorCode = "mfa_invalid_code"
	auditErrMfaUnenroll         AuditErrorCode = "mfa_unenroll_failed"
	auditErrMfaList             AuditErrorCode = "mfa_list_failed"
	auditErrOtpInvalid          AuditErrorCode = "otp_invalid"
	auditErrPasswordReset       AuditErrorCode = "password_reset_failed"
	auditErrPasswordUpdate      AuditErrorCode = "password_update_failed"
	auditErrProfileUpdate       AuditErrorCode = "profile_update_failed"
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrProviderUnsupported AuditErrorCode = "provider_unsupported"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	provider string,
	flowID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		FlowID:    flowID,
		UserID:    userID,
		Provider:  provider,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSignUpFailed):
		return auditErrSignUpRejected
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrRefreshFailed):
		return auditErrRefreshRejected
	case errors.Is(err, ErrOAuthInitiation):
		return auditErrOAuthInitiation
	case errors.Is(err, ErrOAuthMissingCode):
		return auditErrOAuthMissingCode
	case errors.Is(err, ErrOAuthStateLost):
		return auditErrOAuthStateLost
	case errors.Is(err, ErrOAuthExchange):
		return auditErrOAuthExchange
	case errors.Is(err, ErrMfaEnroll):
		return auditErrMfaEnroll
	case errors.Is(err, ErrMfaChallenge):
		return auditErrMfaChallenge
	case errors.Is(err, ErrMfaInvalidCode):
		return auditErrMfaInvalid
	case errors.Is(err, ErrMfaUnenroll):
		return auditErrMfaUnenroll
	case errors.Is(err, ErrMfaList):
		return auditErrMfaList
	case errors.Is(err, ErrOTPVerification):
		return auditErrOtpInvalid
	case errors.Is(err, ErrPasswordResetFailed):
		return auditErrPasswordReset
	case errors.Is(err, ErrPasswordUpdateFailed):
		return auditErrPasswordUpdate
	case errors.Is(err, ErrProfileUpdateFailed):
		return auditErrProfileUpdate
	case errors.Is(err, ErrProviderUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, ErrProviderUnsupported):
		return auditErrProviderUnsupported
	default:
		return auditErrInternal
	}
}

package authkit

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ProviderError is the decoded form of an identity provider error response.
// Code is the provider's machine-readable error code when one could be
// recovered, Message the raw provider message.
type ProviderError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %s (http %d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("provider error (http %d): %s", e.HTTPStatus, e.Message)
}

// DecodeProviderError recovers a structured error from a provider response
// body. Provider deployments disagree on the error shape, so every known
// field is probed and a substring heuristic backstops unparseable bodies.
func DecodeProviderError(status int, body []byte) *ProviderError {
	e := &ProviderError{HTTPStatus: status}
	if len(body) == 0 {
		return e
	}

	raw := string(body)
	if !gjson.Valid(raw) {
		e.Message = strings.TrimSpace(raw)
		e.Code = heuristicCode(raw)
		return e
	}

	if v := gjson.Get(raw, "error_code"); v.Exists() {
		e.Code = v.String()
	}
	if e.Code == "" {
		if v := gjson.Get(raw, "error"); v.Exists() && v.Type == gjson.String {
			e.Code = v.String()
		}
	}

	for _, path := range []string{"msg", "message", "error_description", "error.message"} {
		if v := gjson.Get(raw, path); v.Exists() && v.String() != "" {
			e.Message = v.String()
			break
		}
	}

	if e.Code == "" {
		e.Code = heuristicCode(raw)
	}

	return e
}

// heuristicCode recognizes well-known failure phrases in bodies that carried
// no usable code field.
func heuristicCode(body string) string {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return "invalid_credentials"
	case strings.Contains(lower, "email not confirmed"):
		return "email_not_confirmed"
	case strings.Contains(lower, "already registered"):
		return "user_already_exists"
	case strings.Contains(lower, "invalid_grant"):
		return "invalid_grant"
	case strings.Contains(lower, "rate limit"):
		return "over_request_rate_limit"
	default:
		return ""
	}
}

var providerErrorMessages = map[string]string{
	"invalid_credentials":        "Incorrect email or password.",
	"invalid_grant":              "Incorrect email or password.",
	"email_not_confirmed":        "Confirm your email address before signing in.",
	"user_already_exists":        "An account with this email already exists.",
	"email_exists":               "An account with this email already exists.",
	"weak_password":              "Password does not meet the minimum requirements.",
	"over_request_rate_limit":    "Too many attempts. Try again in a few minutes.",
	"otp_expired":                "That code has expired. Request a new one.",
	"otp_disabled":               "Code sign-in is not available for this account.",
	"mfa_verification_failed":    "Incorrect verification code.",
	"mfa_challenge_expired":      "The verification window expired. Start again.",
	"mfa_factor_not_found":       "That authenticator is no longer registered.",
	"refresh_token_not_found":    "Your session has expired. Please sign in again.",
	"refresh_token_already_used": "Your session has expired. Please sign in again.",
	"flow_state_not_found":       "Sign-in took too long. Please try again.",
	"flow_state_expired":         "Sign-in took too long. Please try again.",
	"bad_code_verifier":          "Sign-in could not be completed. Please try again.",
	"validation_failed":          "The request was invalid.",
	"user_banned":                "This account has been suspended.",
	"session_not_found":          "Your session has expired. Please sign in again.",
}

// FriendlyMessage returns a shopper-facing message for the error. Unknown
// codes fall through to a generic message that preserves the raw code for
// support tickets.
func (e *ProviderError) FriendlyMessage() string {
	if e == nil {
		return "Authentication failed."
	}
	if msg, ok := providerErrorMessages[e.Code]; ok {
		return msg
	}
	if e.Code != "" {
		return fmt.Sprintf("Authentication failed (%s).", e.Code)
	}
	return "Authentication failed."
}

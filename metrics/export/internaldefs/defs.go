package internaldefs

import (
	"github.com/cartsmith/authkit"
)

// CounterDef defines a public type used by authkit APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authkit APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the auth client.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricSignInSuccess, Name: "authkit_sign_in_success_total", Help: "Successful password sign-ins."},
	{ID: authkit.MetricSignInFailure, Name: "authkit_sign_in_failure_total", Help: "Failed password sign-ins."},
	{ID: authkit.MetricSignUpSuccess, Name: "authkit_sign_up_success_total", Help: "Successful account registrations."},
	{ID: authkit.MetricSignUpFailure, Name: "authkit_sign_up_failure_total", Help: "Failed account registrations."},
	{ID: authkit.MetricSignOut, Name: "authkit_sign_out_total", Help: "Sign-out operations."},
	{ID: authkit.MetricSessionRestored, Name: "authkit_session_restored_total", Help: "Sessions restored from the credential store."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authkit.MetricRefreshSkipped, Name: "authkit_refresh_skipped_total", Help: "Refresh attempts skipped by cooldown or contention."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: authkit.MetricOAuthInitiated, Name: "authkit_oauth_initiated_total", Help: "OAuth redirects prepared."},
	{ID: authkit.MetricOAuthInitFailure, Name: "authkit_oauth_init_failure_total", Help: "OAuth redirect preparations that failed."},
	{ID: authkit.MetricOAuthCallbackSuccess, Name: "authkit_oauth_callback_success_total", Help: "OAuth callbacks that exchanged a code."},
	{ID: authkit.MetricOAuthCallbackFailure, Name: "authkit_oauth_callback_failure_total", Help: "OAuth callbacks that failed."},
	{ID: authkit.MetricOAuthSessionAdopted, Name: "authkit_oauth_session_adopted_total", Help: "OAuth callbacks resolved by adopting a provider-held session."},
	{ID: authkit.MetricOAuthStateLost, Name: "authkit_oauth_state_lost_total", Help: "OAuth callbacks with no recoverable flow state."},
	{ID: authkit.MetricMfaEnrollSuccess, Name: "authkit_mfa_enroll_success_total", Help: "Successful factor enrollments."},
	{ID: authkit.MetricMfaEnrollFailure, Name: "authkit_mfa_enroll_failure_total", Help: "Failed factor enrollments."},
	{ID: authkit.MetricMfaChallengeSuccess, Name: "authkit_mfa_challenge_success_total", Help: "Successful factor challenges."},
	{ID: authkit.MetricMfaChallengeFailure, Name: "authkit_mfa_challenge_failure_total", Help: "Failed factor challenges."},
	{ID: authkit.MetricMfaVerifySuccess, Name: "authkit_mfa_verify_success_total", Help: "Successful factor verifications."},
	{ID: authkit.MetricMfaVerifyFailure, Name: "authkit_mfa_verify_failure_total", Help: "Failed factor verifications."},
	{ID: authkit.MetricMfaUnenrollSuccess, Name: "authkit_mfa_unenroll_success_total", Help: "Successful factor unenrollments."},
	{ID: authkit.MetricMfaUnenrollFailure, Name: "authkit_mfa_unenroll_failure_total", Help: "Failed factor unenrollments."},
	{ID: authkit.MetricOtpVerifySuccess, Name: "authkit_otp_verify_success_total", Help: "Successful email code verifications."},
	{ID: authkit.MetricOtpVerifyFailure, Name: "authkit_otp_verify_failure_total", Help: "Failed email code verifications."},
	{ID: authkit.MetricPasswordResetRequested, Name: "authkit_password_reset_requested_total", Help: "Password reset emails requested."},
	{ID: authkit.MetricPasswordUpdated, Name: "authkit_password_updated_total", Help: "Password updates."},
	{ID: authkit.MetricProfileUpdated, Name: "authkit_profile_updated_total", Help: "Profile updates."},
	{ID: authkit.MetricProfileUpsertFailed, Name: "authkit_profile_upsert_failed_total", Help: "Profile projections that failed to persist."},
	{ID: authkit.MetricStorageSwallowed, Name: "authkit_storage_swallowed_total", Help: "Storage errors swallowed by soft-fail paths."},
	{ID: authkit.MetricPkceFallback, Name: "authkit_pkce_fallback_total", Help: "Verifier reads served from the in-process fallback."},
}

// HistogramDefs is an exported constant or variable used by the auth client.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricSessionReadLatency, Name: "authkit_session_read_latency_seconds", Help: "GetCurrentSession latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the auth client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the auth client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

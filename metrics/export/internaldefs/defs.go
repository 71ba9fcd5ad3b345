package internaldefs

import (
	resetkit "github.com/resetkit/resetkit"
)

// CounterDef maps one core counter to an exported series name.
type CounterDef struct {
	ID   resetkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: resetkit.MetricTokenIssued, Name: "resetkit_token_issued_total", Help: "Reset tokens issued."},
	{ID: resetkit.MetricVerifySuccess, Name: "resetkit_verify_success_total", Help: "Successful reset token verifications."},
	{ID: resetkit.MetricVerifyFailure, Name: "resetkit_verify_failure_total", Help: "Failed reset token verifications."},
	{ID: resetkit.MetricDeviceMismatch, Name: "resetkit_device_mismatch_total", Help: "Verifications rejected for user-agent mismatch."},
	{ID: resetkit.MetricLocationMismatch, Name: "resetkit_location_mismatch_total", Help: "Verifications rejected for IP dissimilarity."},
	{ID: resetkit.MetricResetSuccess, Name: "resetkit_reset_success_total", Help: "Completed password resets."},
	{ID: resetkit.MetricResetFailure, Name: "resetkit_reset_failure_total", Help: "Rejected password resets."},
	{ID: resetkit.MetricPasswordChangeRejected, Name: "resetkit_password_change_rejected_total", Help: "Rejected password-change validations."},
	{ID: resetkit.MetricRateLimited, Name: "resetkit_rate_limited_total", Help: "Fixed-window rate-limit denials."},
	{ID: resetkit.MetricBlacklistHit, Name: "resetkit_blacklist_hit_total", Help: "Revoked tokens caught by the blacklist."},
	{ID: resetkit.MetricBlacklistFailOpen, Name: "resetkit_blacklist_fail_open_total", Help: "Blacklist reads answered permissively during store outage."},
	{ID: resetkit.MetricStoreUnavailable, Name: "resetkit_store_unavailable_total", Help: "Operations failed by store outage."},
	{ID: resetkit.MetricTokenVersionBumped, Name: "resetkit_token_version_bumped_total", Help: "Per-user token-version increments."},
	{ID: resetkit.MetricSessionCreated, Name: "resetkit_session_created_total", Help: "Sessions written to the registry."},
	{ID: resetkit.MetricSessionInvalidated, Name: "resetkit_session_invalidated_total", Help: "Sessions removed from the registry."},
	{ID: resetkit.MetricSessionTokenStale, Name: "resetkit_session_token_stale_total", Help: "Session tokens rejected for a stale embedded version."},
}

// AuditDroppedName is the series for audit events dropped under
// dispatcher backpressure. It is sourced from the dispatcher, not the
// counter set, so it lives outside CounterDefs.
const AuditDroppedName = "resetkit_audit_dropped_total"

// AuditDroppedHelp documents the AuditDroppedName series.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

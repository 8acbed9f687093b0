package internaldefs

import (
	"strconv"
	"strings"

	"github.com/MrEthical07/authchain"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   authchain.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authchain.MetricLoginSuccess, Name: "authchain_login_success_total", Help: "Successful logins."},
	{ID: authchain.MetricLoginFailure, Name: "authchain_login_failure_total", Help: "Failed logins."},
	{ID: authchain.MetricRefreshSuccess, Name: "authchain_refresh_success_total", Help: "Successful token renewals."},
	{ID: authchain.MetricRefreshFailure, Name: "authchain_refresh_failure_total", Help: "Failed token renewals."},
	{ID: authchain.MetricLogout, Name: "authchain_logout_total", Help: "Completed logouts."},
	{ID: authchain.MetricLogoutFailure, Name: "authchain_logout_failure_total", Help: "Failed logouts."},
	{ID: authchain.MetricSecretKeySuccess, Name: "authchain_secret_key_success_total", Help: "Accepted secret key checks."},
	{ID: authchain.MetricSecretKeyFailure, Name: "authchain_secret_key_failure_total", Help: "Rejected secret key checks."},
	{ID: authchain.MetricSessionCreated, Name: "authchain_session_created_total", Help: "Sessions started."},
	{ID: authchain.MetricSessionRotated, Name: "authchain_session_rotated_total", Help: "Sessions replaced by renewal."},
	{ID: authchain.MetricSessionExpired, Name: "authchain_session_expired_total", Help: "Renewals that found no live session."},
	{ID: authchain.MetricSessionRevoked, Name: "authchain_session_revoked_total", Help: "Sessions ended by revocation."},
	{ID: authchain.MetricRevokedTokenRejected, Name: "authchain_revoked_token_rejected_total", Help: "Revoked refresh tokens presented again."},
	{ID: authchain.MetricIssueFailure, Name: "authchain_issue_failure_total", Help: "Storage or signing failures during issuance."},
	{ID: authchain.MetricVerifyTimeout, Name: "authchain_verify_timeout_total", Help: "Token verifications that hit the deadline."},
}

const (
	LatencyName      = "authchain_verify_latency_seconds"
	LatencyHelp      = "Token verification latency."
	AuditDroppedName = "authchain_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher queue was full."
)

// BoundSeconds are the finite latency bucket bounds in seconds.
var BoundSeconds = func() []float64 {
	out := make([]float64, len(authchain.BucketBounds))
	for i, d := range authchain.BucketBounds {
		out[i] = d.Seconds()
	}
	return out
}()

// BoundSuffix renders each bucket bound, "+Inf" included, for use in
// instrument names ("0_005", ..., "inf").
var BoundSuffix = func() []string {
	out := make([]string, 0, authchain.HistogramBuckets)
	for _, s := range BoundSeconds {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(s, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}()

// NormalizeBuckets pads or truncates raw to the engine's bucket count.
func NormalizeBuckets(raw []uint64) [authchain.HistogramBuckets]uint64 {
	var out [authchain.HistogramBuckets]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [authchain.HistogramBuckets]uint64) [authchain.HistogramBuckets]uint64 {
	var out [authchain.HistogramBuckets]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}

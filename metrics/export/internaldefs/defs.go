package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef maps a [goSession.MetricID] to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef maps a histogram [goSession.MetricID] to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricRequestAttempt, Name: "gosession_request_attempt_total", Help: "Attempts of in-scope requests, retries included."},
	{ID: goSession.MetricPassThrough, Name: "gosession_pass_through_total", Help: "Out-of-scope requests sent unchanged."},
	{ID: goSession.MetricExpiredResponse, Name: "gosession_expired_response_total", Help: "Responses carrying the session-expired status."},
	{ID: goSession.MetricRetry, Name: "gosession_retry_total", Help: "Requests replayed after a successful refresh."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Requests that ended with a session-expired error."},
	{ID: goSession.MetricTransportError, Name: "gosession_transport_error_total", Help: "Attempts that failed without a response."},
	{ID: goSession.MetricTokenCleanup, Name: "gosession_token_cleanup_total", Help: "Cleanups that removed tokens of a vanished session."},
	{ID: goSession.MetricRefreshCall, Name: "gosession_refresh_call_total", Help: "Calls to the refresh endpoint."},
	{ID: goSession.MetricRefreshRetry, Name: "gosession_refresh_retry_total", Help: "Refresh requests that ended with RETRY."},
	{ID: goSession.MetricRefreshSessionExpired, Name: "gosession_refresh_session_expired_total", Help: "Refresh requests that ended with SESSION_EXPIRED."},
	{ID: goSession.MetricRefreshAPIError, Name: "gosession_refresh_api_error_total", Help: "Refresh requests that ended with API_ERROR."},
	{ID: goSession.MetricRefreshFastPath, Name: "gosession_refresh_fast_path_total", Help: "Refresh requests answered without a session."},
	{ID: goSession.MetricRefreshDeduplicated, Name: "gosession_refresh_deduplicated_total", Help: "Refresh requests satisfied by a concurrent refresh."},
	{ID: goSession.MetricInterceptorInstalled, Name: "gosession_interceptor_installed_total", Help: "HTTP clients wrapped by AddInterceptors."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRequestLatency, Name: "gosession_request_latency_seconds", Help: "Latency of whole logical requests, retries included."},
}

// HistogramBounds are the upper bounds of the first seven buckets in seconds. The
// eighth bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters without native
// histograms.
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

// NormalizeBuckets copies raw into a fixed array, padding missing buckets with zero.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

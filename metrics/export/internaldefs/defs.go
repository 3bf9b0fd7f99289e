// Package internaldefs carries the shared metric definitions consumed
// by the exporters under metrics/export. It exists so the Prometheus
// and OTel exporters agree on names without duplicating tables.
package internaldefs

import (
	samunu "github.com/nestorzamili/samunu-project"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   samunu.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   samunu.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: samunu.MetricSignInSuccess, Name: "samunu_signin_success_total", Help: "Provider-confirmed sign-ins."},
	{ID: samunu.MetricSignInFailure, Name: "samunu_signin_failure_total", Help: "Provider-declined sign-ins."},
	{ID: samunu.MetricSignInUnexpected, Name: "samunu_signin_unexpected_total", Help: "Sign-ins lost to transport failures or timeouts."},
	{ID: samunu.MetricSignUpSuccess, Name: "samunu_signup_success_total", Help: "Provider-confirmed sign-ups."},
	{ID: samunu.MetricSignUpFailure, Name: "samunu_signup_failure_total", Help: "Provider-declined sign-ups."},
	{ID: samunu.MetricSignUpUnexpected, Name: "samunu_signup_unexpected_total", Help: "Sign-ups lost to transport failures or timeouts."},
	{ID: samunu.MetricValidationRejected, Name: "samunu_validation_rejected_total", Help: "Submissions stopped by field validation."},
	{ID: samunu.MetricSubmissionRejectedInFlight, Name: "samunu_submission_rejected_in_flight_total", Help: "Submit calls refused while another submission was outstanding."},
	{ID: samunu.MetricGateAllowed, Name: "samunu_gate_allowed_total", Help: "Protected-page requests with a confirmed session."},
	{ID: samunu.MetricGateRedirected, Name: "samunu_gate_redirected_total", Help: "Protected-page requests redirected to sign-in."},
	{ID: samunu.MetricGateError, Name: "samunu_gate_error_total", Help: "Session lookups that failed at the provider."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: samunu.MetricSubmitLatency, Name: "samunu_submit_latency_seconds", Help: "Submit round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the
// 8 fixed buckets of the in-process histogram.
var HistogramBounds = []float64{
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
}

// NormalizeBuckets widens a raw snapshot slice into the fixed-size
// bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

package internaldefs

import (
	"strconv"
	"strings"

	goNotes "github.com/MrEthical07/goNotes"
)

// Namespace prefixes every exported metric name.
const Namespace = "notes"

// CounterDef names one goNotes counter for exporters.
type CounterDef struct {
	ID   goNotes.MetricID
	Name string
	Help string
}

// HistogramDef names one goNotes latency histogram for exporters.
type HistogramDef struct {
	ID   goNotes.MetricID
	Name string
	Help string
}

var help = map[goNotes.MetricID]string{
	goNotes.MetricRegisterSuccess:       "Successful registrations.",
	goNotes.MetricRegisterDuplicate:     "Registrations rejected because the email is taken.",
	goNotes.MetricRegisterRejected:      "Registrations rejected by email or password validation.",
	goNotes.MetricLoginSuccess:          "Successful login attempts.",
	goNotes.MetricLoginFailure:          "Failed login attempts.",
	goNotes.MetricLoginRateLimited:      "Rate-limited login attempts.",
	goNotes.MetricPasswordRehashed:      "Stored password hashes upgraded at login.",
	goNotes.MetricRefreshSuccess:        "Successful refresh-token rotations.",
	goNotes.MetricRefreshFailure:        "Failed refresh operations.",
	goNotes.MetricRefreshReplayRejected: "Signed refresh tokens rejected because they are no longer registered.",
	goNotes.MetricLogout:                "Successful logouts.",
	goNotes.MetricLogoutFailure:         "Failed logouts.",
	goNotes.MetricAuthorizeSuccess:      "Accepted access tokens.",
	goNotes.MetricAuthorizeFailure:      "Rejected access tokens.",
	goNotes.MetricNoteCreated:           "Created notes.",
	goNotes.MetricNoteUpdated:           "Updated notes.",
	goNotes.MetricNoteDeleted:           "Deleted notes.",
	goNotes.MetricInfrastructureError:   "Operations failed by a backing store.",
	goNotes.MetricAuthorizeLatency:      "Authorize latency.",
	goNotes.MetricLoginLatency:          "Login latency.",
}

// CounterDefs lists every counter in MetricID order.
var CounterDefs, HistogramDefs = buildDefs()

func buildDefs() ([]CounterDef, []HistogramDef) {
	var counters []CounterDef
	var histograms []HistogramDef
	for _, id := range goNotes.MetricIDs() {
		if id.IsLatency() {
			histograms = append(histograms, HistogramDef{
				ID:   id,
				Name: Namespace + "_" + strings.TrimSuffix(id.String(), "_latency") + "_latency_seconds",
				Help: help[id],
			})
			continue
		}
		counters = append(counters, CounterDef{
			ID:   id,
			Name: Namespace + "_" + id.String() + "_total",
			Help: help[id],
		})
	}
	return counters, histograms
}

// AuditDroppedName is the counter for audit events discarded under backpressure.
const AuditDroppedName = Namespace + "_audit_dropped_total"

// BucketCount is the number of histogram buckets, including +Inf.
const BucketCount = len(goNotes.HistogramBounds) + 1

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(goNotes.HistogramBounds))
	for i, b := range goNotes.HistogramBounds {
		out[i] = b.Seconds()
	}
	return out
}

// HistogramBoundSuffix returns metric-name-safe bucket labels, e.g. "0_005"
// and "inf".
func HistogramBoundSuffix() []string {
	out := make([]string, 0, BucketCount)
	for _, s := range UpperBounds() {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(s, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}

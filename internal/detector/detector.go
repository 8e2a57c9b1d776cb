package detector

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Verdict is the outcome of referer classification
type Verdict string

const (
	VerdictTrusted   Verdict = "trusted"
	VerdictUntrusted Verdict = "untrusted"
)

// Result contains the classification of a single request
type Result struct {
	RequestID      string    `json:"request_id"`
	Timestamp      time.Time `json:"timestamp"`
	Verdict        Verdict   `json:"verdict"`
	Referer        string    `json:"referer"`
	RefererPresent bool      `json:"referer_present"`
	MatchedEntry   string    `json:"matched_entry,omitempty"`
}

// Trusted reports whether the request came from an allow-listed origin
func (r Result) Trusted() bool {
	return r.Verdict == VerdictTrusted
}

// Classify decides whether a referer value is trusted.
// A missing referer is never trusted.
func Classify(referer string, present bool, list AllowList) Verdict {
	if !present {
		return VerdictUntrusted
	}
	if _, ok := list.Match(referer); ok {
		return VerdictTrusted
	}
	return VerdictUntrusted
}

// Detector classifies inbound requests against an allow-list
type Detector struct {
	allowList AllowList
}

// New creates a detector bound to the given allow-list
func New(list AllowList) *Detector {
	return &Detector{allowList: list}
}

// AllowList returns the allow-list the detector was built with
func (d *Detector) AllowList() AllowList {
	return d.allowList
}

// Inspect classifies the Referer header of r
func (d *Detector) Inspect(r *http.Request) Result {
	referer, present := RefererHeader(r)

	result := Result{
		RequestID:      uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Verdict:        VerdictUntrusted,
		Referer:        referer,
		RefererPresent: present,
	}

	if present {
		if entry, ok := d.allowList.Match(referer); ok {
			result.Verdict = VerdictTrusted
			result.MatchedEntry = entry
		}
	}

	return result
}

// RefererHeader returns the first Referer value and whether the header was
// sent at all. r.Referer() cannot tell an empty header from a missing one.
func RefererHeader(r *http.Request) (string, bool) {
	values, ok := r.Header["Referer"]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

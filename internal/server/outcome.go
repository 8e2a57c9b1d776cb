package server

import (
	"net/http"
	"strconv"

	"github.com/muliwe/aitm-detector/internal/asset"
)

// OutcomeKind names how a detection request was answered
type OutcomeKind string

const (
	OutcomeTrusted   OutcomeKind = "trusted"
	OutcomeUntrusted OutcomeKind = "untrusted"
	OutcomeFault     OutcomeKind = "fault"
)

// Outcome is the response to a detection request.
// Every kind renders as 200 so callers cannot tell faults from verdicts.
type Outcome struct {
	Kind OutcomeKind
	Body []byte // warning image, only for OutcomeUntrusted
	Err  error  // cause, only for OutcomeFault
}

// TrustedOutcome is an empty 200
func TrustedOutcome() Outcome {
	return Outcome{Kind: OutcomeTrusted}
}

// UntrustedOutcome carries the warning image
func UntrustedOutcome(image []byte) Outcome {
	return Outcome{Kind: OutcomeUntrusted, Body: image}
}

// FaultOutcome is an empty 200 recording err for diagnostics
func FaultOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeFault, Err: err}
}

// Render writes the outcome to w
func (o Outcome) Render(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")

	if o.Kind != OutcomeUntrusted || len(o.Body) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(o.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(o.Body)
}

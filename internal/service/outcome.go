package service

import (
	"errors"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/peaks"
	"github.com/suykerbuyk/sweep-vault/internal/reader"
	"github.com/suykerbuyk/sweep-vault/internal/sweep"
)

// Severity grades an outcome for display.
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Danger  Severity = "danger"
)

// Outcome is the message/severity pair shown to the caller.
type Outcome struct {
	Message  string
	Severity Severity
}

// OK builds a success outcome.
func OK(msg string) Outcome { return Outcome{Message: msg, Severity: Success} }

// Report maps an operation error to an outcome. Refused requests that
// left stored data untouched are warnings; anything that failed midway is
// danger.
func Report(err error) Outcome {
	if err == nil {
		return OK("done")
	}
	var (
		rangeErr  *sweep.RangeError
		windowErr *peaks.WindowError
	)
	switch {
	case errors.Is(err, ErrAlreadyUnpacked),
		errors.Is(err, ErrExists),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalid),
		errors.Is(err, reader.ErrUnsupported),
		errors.Is(err, analysis.ErrPrecondition),
		errors.As(err, &rangeErr),
		errors.As(err, &windowErr):
		return Outcome{Message: err.Error(), Severity: Warning}
	}
	return Outcome{Message: err.Error(), Severity: Danger}
}

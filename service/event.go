package service

import (
	"fmt"
	"time"
)

// Outcome classifies a normalization call.
type Outcome int32

const (
	OutcomeExtracted Outcome = iota // at least one literal became a parameter
	OutcomeFallback                 // key is the re-serialized original query
	OutcomeError                    // tokenizer or assertion error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExtracted:
		return "extracted"
	case OutcomeFallback:
		return "fallback"
	case OutcomeError:
		return "error"
	}
	return fmt.Sprintf("UnknownOutcome(%d)", o)
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "extracted":
		return OutcomeExtracted, nil
	case "fallback":
		return OutcomeFallback, nil
	case "error":
		return OutcomeError, nil
	}
	return 0, fmt.Errorf("service: unknown outcome %q", s)
}

// Event describes one normalization handled by the service.
type Event struct {
	ID          string
	Query       string
	Key         string
	Fingerprint uint64
	// Variables holds the extracted values in binding order, rendered as
	// EdgeQL literals.
	Variables []string
	// Types holds the canonical type name of each variable.
	Types     []string
	NamedArgs bool
	// FirstArg is -1 when no variables were extracted.
	FirstArg  int
	Outcome   Outcome
	Skipped   string
	Hot       bool
	Error     string
	ErrorKind string
	StartTime time.Time
	Duration  time.Duration
}

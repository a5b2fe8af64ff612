package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Severity grades a soft anomaly found while decoding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Anomaly is a tolerated inconsistency: decoding went on with best-effort data.
type Anomaly struct {
	Severity Severity
	Entity   string // e.g. "sticker set 42", "file 7"
	Message  string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s: %s", a.Severity, a.Entity, a.Message)
}

// Report collects anomalies in the order they were found. A nil *Report
// discards everything.
type Report struct {
	Anomalies []Anomaly
}

// Add appends an anomaly.
func (r *Report) Add(sev Severity, entity fmt.Stringer, format string, args ...any) {
	if r == nil {
		return
	}
	r.Anomalies = append(r.Anomalies, Anomaly{
		Severity: sev,
		Entity:   entity.String(),
		Message:  fmt.Sprintf(format, args...),
	})
}

// Len returns the number of collected anomalies.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Anomalies)
}

// Count returns the number of anomalies with the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	if r == nil {
		return 0
	}
	for _, a := range r.Anomalies {
		if a.Severity == sev {
			n++
		}
	}
	return n
}

// Record is one encoded entity as kept by the persistent store.
type Record struct {
	AccountID uuid.UUID // cache namespace
	Key       string    // e.g. "ss42", "reactions"
	Blob      []byte    // encoded record
	Ver       int64     // bumped on every write
	UpdatedAt time.Time
}

package model

import (
	"fmt"
	"log"
	"sync"
)

// DiagnosticKind classifies a non-fatal consistency finding raised while loading a model.
type DiagnosticKind int

const (
	// DiagnosticBindPoseConflict is raised when a later mesh assigns a different bind pose to a bone.
	DiagnosticBindPoseConflict DiagnosticKind = iota

	// DiagnosticWeightSum is raised when a vertex's weights do not sum to 1 within tolerance.
	DiagnosticWeightSum

	// DiagnosticKeyCountMismatch is raised when a channel's position/rotation/scale key counts differ.
	DiagnosticKeyCountMismatch
)

// String returns a short name for the kind.
//
// Returns:
//   - string: the kind name
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticBindPoseConflict:
		return "bind-pose-conflict"
	case DiagnosticWeightSum:
		return "weight-sum"
	case DiagnosticKeyCountMismatch:
		return "key-count-mismatch"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic is a single logged, non-fatal finding.
type Diagnostic struct {
	Kind    DiagnosticKind
	Source  string // mesh or track name
	BoneID  int    // -1 when not bone specific
	Vertex  int    // -1 when not vertex specific
	Message string
}

// diagnosticLog is the implementation of the DiagnosticLog interface.
type diagnosticLog struct {
	mu      sync.Mutex
	logger  *log.Logger
	entries []Diagnostic
}

// DiagnosticLog collects non-fatal findings and echoes them to a logger.
// Reporting never alters control flow. Safe for concurrent use.
type DiagnosticLog interface {
	// Report records a diagnostic and writes it to the logger.
	//
	// Parameters:
	//   - d: the diagnostic to record
	Report(d Diagnostic)

	// Entries returns a copy of all recorded diagnostics in report order.
	//
	// Returns:
	//   - []Diagnostic: the recorded diagnostics
	Entries() []Diagnostic

	// Count returns the number of recorded diagnostics of a kind.
	//
	// Parameters:
	//   - kind: the kind to count
	//
	// Returns:
	//   - int: the count
	Count(kind DiagnosticKind) int
}

var _ DiagnosticLog = &diagnosticLog{}

// NewDiagnosticLog creates a DiagnosticLog writing to logger, or log.Default() when nil.
//
// Parameters:
//   - logger: the destination logger, may be nil
//
// Returns:
//   - DiagnosticLog: the new log
func NewDiagnosticLog(logger *log.Logger) DiagnosticLog {
	if logger == nil {
		logger = log.Default()
	}
	return &diagnosticLog{logger: logger}
}

func (l *diagnosticLog) Report(d Diagnostic) {
	l.mu.Lock()
	l.entries = append(l.entries, d)
	l.mu.Unlock()
	l.logger.Printf("[Diagnostics] %s %s: %s", d.Kind, d.Source, d.Message)
}

func (l *diagnosticLog) Entries() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *diagnosticLog) Count(kind DiagnosticKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, d := range l.entries {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

package profiler

import (
	"log"
	"runtime"
	"time"
)

// Phase is the measurement of one named step.
type Phase struct {
	// Name identifies the step.
	Name string

	// Duration is the wall time the step took.
	Duration time.Duration

	// AllocBytes is the number of heap bytes allocated while the step ran.
	AllocBytes uint64
}

// Profiler records the duration and heap allocation of consecutive named phases, such as the stages
// of a model load, and logs a summary on Report.
type Profiler struct {
	label    string
	logger   *log.Logger
	start    time.Time
	phases   []Phase
	memStats runtime.MemStats
}

// NewProfiler creates a new Profiler for one labeled run.
//
// Parameters:
//   - label: the run label, e.g. the model path
//   - logger: the logger used by Report, nil selects log.Default()
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(label string, logger *log.Logger) *Profiler {
	if logger == nil {
		logger = log.Default()
	}
	return &Profiler{
		label:  label,
		logger: logger,
		start:  time.Now(),
	}
}

// Measure runs fn as the named phase and records its duration and allocations.
// A nil Profiler runs fn unmeasured.
//
// Parameters:
//   - name: the phase name
//   - fn: the step to run
//
// Returns:
//   - error: the error returned by fn
func (p *Profiler) Measure(name string, fn func() error) error {
	if p == nil {
		return fn()
	}

	runtime.ReadMemStats(&p.memStats)
	allocBefore := p.memStats.TotalAlloc
	begin := time.Now()

	err := fn()

	elapsed := time.Since(begin)
	runtime.ReadMemStats(&p.memStats)
	p.phases = append(p.phases, Phase{
		Name:       name,
		Duration:   elapsed,
		AllocBytes: p.memStats.TotalAlloc - allocBefore,
	})
	return err
}

// Phases returns the recorded phases in run order.
//
// Returns:
//   - []Phase: the phases
func (p *Profiler) Phases() []Phase {
	if p == nil {
		return nil
	}
	out := make([]Phase, len(p.phases))
	copy(out, p.phases)
	return out
}

// Report logs every phase followed by the total time and the current heap footprint.
func (p *Profiler) Report() {
	if p == nil {
		return
	}

	for _, ph := range p.phases {
		p.logger.Printf("[Profiler] %s | %s: %s | Alloc: %.2f MB",
			p.label, ph.Name, ph.Duration, float64(ph.AllocBytes)/1024/1024)
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: bytes of live heap objects, Sys: total bytes obtained from the OS
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	p.logger.Printf("[Profiler] %s | total: %s | Heap: %.2f MB | GC: %d | Sys: %.2f MB",
		p.label, time.Since(p.start), allocMB, p.memStats.NumGC, sysMB)
}

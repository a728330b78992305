package skinning

import (
	"log"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// PackerBuilderOption is a functional option for configuring a Packer via NewPacker.
type PackerBuilderOption func(*packer)

// WithTolerance sets the allowed deviation of a vertex's weight sum from 1.
// Zero keeps DefaultWeightTolerance.
//
// Parameters:
//   - tolerance: the absolute tolerance
//
// Returns:
//   - PackerBuilderOption: a function that applies the tolerance option to a packer
func WithTolerance(tolerance float64) PackerBuilderOption {
	return func(p *packer) {
		p.tolerance = tolerance
	}
}

// WithWorkers sets the number of workers PackAll fans sub-meshes out to.
// Values below 2 pack serially. Otherwise NewPacker starts a pool that lives as long as the packer;
// callers creating many packers should share one through WithPool instead.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - PackerBuilderOption: a function that applies the workers option to a packer
func WithWorkers(workers int) PackerBuilderOption {
	return func(p *packer) {
		p.workers = workers
	}
}

// WithPool sets a caller-owned worker pool for PackAll. The packer takes its worker count from
// the pool and never stops it.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - PackerBuilderOption: a function that applies the pool option to a packer
func WithPool(pool worker.DynamicWorkerPool) PackerBuilderOption {
	return func(p *packer) {
		p.pool = pool
	}
}

// WithDiagnostics sets the log receiving weight-sum and bind-pose findings.
//
// Parameters:
//   - diagnostics: the diagnostic log
//
// Returns:
//   - PackerBuilderOption: a function that applies the diagnostics option to a packer
func WithDiagnostics(diagnostics model.DiagnosticLog) PackerBuilderOption {
	return func(p *packer) {
		p.diagnostics = diagnostics
	}
}

// WithLogger sets the logger used for progress output and, when no diagnostic log is given,
// for the default one.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - PackerBuilderOption: a function that applies the logger option to a packer
func WithLogger(logger *log.Logger) PackerBuilderOption {
	return func(p *packer) {
		p.logger = logger
	}
}

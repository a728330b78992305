package loader

import (
	"log"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithRenderer is an option builder that sets the Renderer used by the Loader.
// Without a renderer, models are built CPU-side only and nothing is uploaded.
//
// Parameters:
//   - r: the renderer instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the renderer option to a loader
func WithRenderer(r renderer.Renderer) LoaderBuilderOption {
	return func(l *loader) {
		l.renderer = r
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithAnimationTextureWidth is an option builder that sets the width, in texels, of the bone weight
// and bind-pose textures. Track textures are always one bone row wide.
//
// Parameters:
//   - width: the texture width, zero or negative keeps common.DefaultTextureWidth
//
// Returns:
//   - LoaderBuilderOption: a function that applies the width option to a loader
func WithAnimationTextureWidth(width int) LoaderBuilderOption {
	return func(l *loader) {
		l.textureWidth = width
	}
}

// WithWeightTolerance is an option builder that sets the allowed deviation of a vertex weight sum
// from 1 before a diagnostic is recorded.
//
// Parameters:
//   - tolerance: the tolerance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the tolerance option to a loader
func WithWeightTolerance(tolerance float64) LoaderBuilderOption {
	return func(l *loader) {
		l.weightTolerance = tolerance
	}
}

// WithWorkers is an option builder that sets how many meshes are packed concurrently.
// Loads are serial by default. Above 1 the loader starts one worker pool that every load shares.
//
// Parameters:
//   - workers: the worker count, values below 2 pack serially
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = workers
	}
}

// WithLogger is an option builder that sets the logger for load summaries and diagnostics.
//
// Parameters:
//   - logger: the logger, nil keeps log.Default()
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *log.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithProfiling is an option builder that enables per-phase timing of every load.
//
// Parameters:
//   - enabled: true to log a profile after each load
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiling option to a loader
func WithProfiling(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.profiling = enabled
	}
}

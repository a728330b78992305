// Package engine drives animation playback headlessly: a fixed-rate clock advances every registered
// animator, submits the staged playback writes to the renderer and hands each tick to the caller's
// render callback.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/animator"
)

// ErrAlreadyRunning is returned by Run while a previous Run has not returned.
var ErrAlreadyRunning = errors.New("engine is already running")

// DefaultTickRate is the tick rate in ticks per second when none is configured.
const DefaultTickRate = 60

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	renderer renderer.Renderer
	logger   *log.Logger

	profilingEnabled bool
	tickCount        uint64

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	animators map[int]animator.Animator
}

// Engine is the playback clock. Each tick it advances every animator in ascending key order,
// submits their staged playback writes to the renderer, then calls the tick and render callbacks.
type Engine interface {
	// Renderer returns the renderer staged writes are submitted to.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil when playback runs CPU-only
	Renderer() renderer.Renderer

	// EnableProfiler enables per-second tick profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables tick profiling output.
	DisableProfiler()

	// SetTickRate sets the tick rate in ticks per second. A running engine picks it up on the next tick.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the interval between ticks.
	//
	// Returns:
	//   - time.Duration: the tick interval
	TickRate() time.Duration

	// SetTickCallback registers the function called each tick after the animators advanced.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each tick after the playback writes are
	// submitted. Use it to draw the frame.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// AddAnimator registers an animator at the given key. Animators advance in ascending key order.
	//
	// Parameters:
	//   - key: the order key
	//   - a: the animator
	AddAnimator(key int, a animator.Animator)

	// RemoveAnimator removes the animator at the given key.
	//
	// Parameters:
	//   - key: the order key
	RemoveAnimator(key int)

	// Animator retrieves the animator at the given key.
	//
	// Parameters:
	//   - key: the order key
	//
	// Returns:
	//   - animator.Animator: the animator, or nil if not found
	Animator(key int) animator.Animator

	// Animators returns a copy of all registered animators.
	//
	// Returns:
	//   - map[int]animator.Animator: the animators keyed by order key
	Animators() map[int]animator.Animator

	// Step runs one tick of deltaTime seconds synchronously. Run calls it from its ticker.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Step(deltaTime float32)

	// Run ticks at the tick rate until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ctx.Err() when cancelled, ErrAlreadyRunning, or nil after Quit
	Run(ctx context.Context) error

	// Running reports whether Run is ticking.
	//
	// Returns:
	//   - bool: true while Run has not returned
	Running() bool

	// Quit stops Run. Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (renderer, tick rate, animators, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		animators:       make(map[int]animator.Animator),
		engineTickRate:  time.Second / DefaultTickRate,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.Default()
	}

	return e
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

// EnableProfiler enables per-second tick profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables tick profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the tick rate in ticks per second.
// If the engine is running, the change takes effect on the next tick.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.engineTickRate = newRate
	if !e.running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) TickRate() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engineTickRate
}

// SetTickCallback registers the function called each tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each tick after the playback writes.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) AddAnimator(key int, a animator.Animator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.animators[key] = a
}

func (e *engine) RemoveAnimator(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.animators, key)
}

func (e *engine) Animator(key int) animator.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animators[key]
}

func (e *engine) Animators() map[int]animator.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]animator.Animator, len(e.animators))
	for k, v := range e.animators {
		cp[k] = v
	}
	return cp
}

func (e *engine) Step(deltaTime float32) {
	e.mu.Lock()
	keys := make([]int, 0, len(e.animators))
	for k := range e.animators {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	ordered := make([]animator.Animator, len(keys))
	for i, k := range keys {
		ordered[i] = e.animators[k]
	}
	tickCallback, renderCallback := e.tickCallback, e.renderCallback
	e.tickCount++
	var prof *profiler.Profiler
	if e.profilingEnabled && e.tickCount%uint64(max(time.Second/e.engineTickRate, 1)) == 0 {
		prof = profiler.NewProfiler(fmt.Sprintf("tick %d", e.tickCount), e.logger)
	}
	e.mu.Unlock()

	_ = prof.Measure("animate", func() error {
		for _, a := range ordered {
			a.PrepareFrame(deltaTime)
			writes := a.StagedWriteData()
			if e.renderer != nil && len(writes) > 0 {
				e.renderer.WriteBuffers(writes)
			}
		}
		if tickCallback != nil {
			tickCallback(deltaTime)
		}
		return nil
	})

	if renderCallback != nil {
		_ = prof.Measure("render", func() error {
			renderCallback(deltaTime)
			return nil
		})
	}
	prof.Report()
}

func (e *engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	rate := e.engineTickRate
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

func (e *engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Quit signals Run to return.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// tickInterval converts a tick rate to the interval between ticks, defaulting to DefaultTickRate.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultTickRate
	}
	return time.Duration(float64(time.Second) / fps)
}

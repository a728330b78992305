package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// recordingAnimator records PrepareFrame calls into a shared log.
type recordingAnimator struct {
	animator.Animator
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (r *recordingAnimator) PrepareFrame(deltaTime float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, r.name)
}

func (r *recordingAnimator) StagedWriteData() []bind_group_provider.BufferWrite {
	return nil
}

func quietEngine(opts ...EngineBuilderOption) Engine {
	return NewEngine(append([]EngineBuilderOption{WithLogger(log.New(io.Discard, "", 0))}, opts...)...)
}

// loopingModel has one track of 4 samples at 1 tick per second.
func loopingModel() model.Model {
	skel := &model.Skeleton{
		Bones:    []model.Bone{{ID: 0, Name: "root", ParentID: -1, BindPoseOffset: mgl32.Ident4()}},
		NameToID: map[string]int{"root": 0},
	}
	transforms := make([]mgl32.Mat4, 4)
	for i := range transforms {
		transforms[i] = mgl32.Ident4()
	}
	track := model.AnimationTrack{
		Name:           "spin",
		Duration:       3,
		TicksPerSecond: 1,
		Channels:       []model.AnimationChannel{{Times: []float32{0, 1, 2, 3}, Transforms: transforms}},
	}
	return model.NewModel(model.WithName("spinner"), model.WithSkeleton(skel), model.WithTracks([]model.AnimationTrack{track}))
}

func TestStepAdvancesAnimatorsInKeyOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) animator.Animator {
		return &recordingAnimator{name: name, mu: &mu, log: &calls}
	}

	e := quietEngine(WithAnimator(2, record("b")), WithAnimator(-1, record("a")))
	e.AddAnimator(7, record("c"))
	e.SetTickCallback(func(float32) { calls = append(calls, "tick") })
	e.SetRenderCallback(func(float32) { calls = append(calls, "render") })

	e.Step(0.1)

	want := []string{"a", "b", "c", "tick", "render"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", calls, want)
	}
}

func TestStepAdvancesPlayback(t *testing.T) {
	a := animator.NewAnimator(
		animator.WithModel(loopingModel()),
		animator.WithLoop(true),
		animator.WithLogger(log.New(io.Discard, "", 0)),
	)
	idx, err := a.AddInstance()
	if err != nil {
		t.Fatalf("AddInstance: %v", err)
	}

	e := quietEngine(WithAnimator(0, a))
	e.Step(1)
	e.Step(1)
	if got := a.Frame(idx); got != 2 {
		t.Errorf("got frame %d, want 2", got)
	}
	e.Step(1.5)
	if got := a.Frame(idx); got != 0 {
		t.Errorf("looped frame: got %d, want 0", got)
	}
}

func TestAnimatorRegistry(t *testing.T) {
	a := animator.NewAnimator(animator.WithLogger(log.New(io.Discard, "", 0)))
	e := quietEngine(WithAnimator(1, a))

	if e.Animator(1) != a {
		t.Fatal("WithAnimator must register the animator")
	}
	all := e.Animators()
	delete(all, 1)
	if e.Animator(1) == nil {
		t.Error("Animators must return a copy")
	}
	e.RemoveAnimator(1)
	if e.Animator(1) != nil || len(e.Animators()) != 0 {
		t.Error("RemoveAnimator left the animator registered")
	}
	if e.Renderer() != nil {
		t.Error("renderer must be nil unless configured")
	}
}

func TestTickRate(t *testing.T) {
	e := quietEngine()
	if got := e.TickRate(); got != time.Second/60 {
		t.Errorf("default: got %v", got)
	}
	e.SetTickRate(4)
	if got := e.TickRate(); got != 250*time.Millisecond {
		t.Errorf("4 fps: got %v", got)
	}
	e.SetTickRate(-1)
	if got := e.TickRate(); got != time.Second/60 {
		t.Errorf("non-positive rate: got %v", got)
	}
	if got := quietEngine(WithTickRate(20)).TickRate(); got != 50*time.Millisecond {
		t.Errorf("WithTickRate(20): got %v", got)
	}
}

func TestRunUntilQuit(t *testing.T) {
	e := quietEngine(WithTickRate(1000))
	ticks := 0
	e.SetTickCallback(func(dt float32) {
		ticks++
		if dt < 0 {
			t.Errorf("negative delta %v", dt)
		}
		if ticks == 3 {
			e.Quit()
		}
	})

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks < 3 {
		t.Errorf("got %d ticks, want at least 3", ticks)
	}
	if e.Running() {
		t.Error("engine still running after Run returned")
	}
	e.Quit()
}

func TestRunCancelled(t *testing.T) {
	e := quietEngine(WithTickRate(1000))
	ctx, cancel := context.WithCancel(context.Background())
	e.SetTickCallback(func(float32) { cancel() })

	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRunTwice(t *testing.T) {
	e := quietEngine(WithTickRate(1000))
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("engine did not start")
		}
		time.Sleep(time.Millisecond)
	}

	if err := e.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
	e.SetTickRate(500)
	e.Quit()
	if err := <-done; err != nil {
		t.Errorf("first Run: %v", err)
	}
}

func TestProfilingReportsOncePerSecondOfTicks(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(WithLogger(log.New(&buf, "", 0)), WithTickRate(2), WithProfiling(true))
	e.SetRenderCallback(func(float32) {})

	e.Step(0.5)
	if buf.Len() != 0 {
		t.Fatalf("first tick must not report, got:\n%s", buf.String())
	}
	e.Step(0.5)
	out := buf.String()
	for _, want := range []string{"[Profiler] tick 2 | animate:", "[Profiler] tick 2 | render:"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	e.DisableProfiler()
	e.Step(0.5)
	e.Step(0.5)
	if buf.Len() != 0 {
		t.Errorf("disabled profiler still reports:\n%s", buf.String())
	}
}

// Package animator binds a loaded model's animation textures to their fixed texture units and tracks
// per-instance playback: which track an instance plays and which frame row of that track's texture
// the vertex shader reads.
package animator

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoModel is returned when the animator has no model assigned.
	ErrNoModel = errors.New("animator has no model")

	// ErrInstanceLimit is returned by AddInstance when MaxInstances is reached.
	ErrInstanceLimit = errors.New("animator instance limit reached")

	// ErrUnknownInstance is returned for an instance index that was never added.
	ErrUnknownInstance = errors.New("unknown instance")

	// ErrUnknownTrack is returned for a track index or name the model does not have.
	ErrUnknownTrack = errors.New("unknown track")

	// ErrNotInitialized is returned by Bind before Init succeeded.
	ErrNotInitialized = errors.New("animator bind groups are not initialized")

	// ErrTextureUnits is returned by Init when the uploaded textures do not cover the fixed units.
	ErrTextureUnits = errors.New("animation textures do not match the texture units")
)

const (
	// DefaultMaxInstances is the instance capacity when WithMaxInstances is not given.
	DefaultMaxInstances = 256

	// DefaultTicksPerSecond is used for tracks that do not declare a tick rate.
	DefaultTicksPerSecond = 25

	// DefaultTextureGroup is the bind group index of the animation textures.
	DefaultTextureGroup = 1
)

// BindGroupSetter is the part of a render pass the animator binds onto. *wgpu.RenderPassEncoder satisfies it.
type BindGroupSetter interface {
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
}

// instanceState holds the CPU-side playback state of one instance.
type instanceState struct {
	track int
	time  float32
	speed float32
	loop  bool
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	model  model.Model
	logger *log.Logger

	textureGroup, playbackGroup uint32
	playbackGroupSet            bool
	defaultLoop                 bool

	maxInstances, instanceCount uint32

	instanceStateData []instanceState
	instanceData      []GPUPlaybackData

	playbackProvider bind_group_provider.BindGroupProvider
	stagedWriteData  []bind_group_provider.BufferWrite
}

// Animator defines the public interface of the draw-time binder.
//
// The Animator binds the model's bone-weight texture to WeightTextureUnit, its bind-pose texture to
// BindPoseTextureUnit and track i's texture to TrackTextureUnit(i), all within one bind group. The
// assignment depends only on track order and never changes for a model. Per-instance playback state
// is advanced on the CPU each frame and staged as GPUPlaybackData writes into a storage buffer bound
// in a second group.
type Animator interface {
	// Model returns the model whose textures the animator binds.
	//
	// Returns:
	//   - model.Model: the model, or nil
	Model() model.Model

	// SetModel assigns the model. Existing instances restart on track 0.
	//
	// Parameters:
	//   - m: the model
	SetModel(m model.Model)

	// TextureGroup returns the bind group index of the animation textures.
	//
	// Returns:
	//   - uint32: the group index
	TextureGroup() uint32

	// PlaybackGroup returns the bind group index of the playback buffer.
	//
	// Returns:
	//   - uint32: the group index
	PlaybackGroup() uint32

	// MaxInstances returns the maximum number of instances this animator can manage.
	//
	// Returns:
	//   - uint32: the instance capacity
	MaxInstances() uint32

	// InstanceCount returns the current number of registered instances.
	//
	// Returns:
	//   - uint32: the number of instances
	InstanceCount() uint32

	// AddInstance registers a new instance playing track 0 from time 0 at speed 1.
	//
	// Returns:
	//   - uint32: the instance index
	//   - error: ErrNoModel or ErrInstanceLimit
	AddInstance() (uint32, error)

	// PlayTrack starts a track on an instance from time 0.
	//
	// Parameters:
	//   - instance: the instance index
	//   - track: the track index in model order
	//   - loop: true to wrap at the end of the track, false to hold the last frame
	//
	// Returns:
	//   - error: ErrUnknownInstance or ErrUnknownTrack
	PlayTrack(instance uint32, track int, loop bool) error

	// PlayTrackByName starts the named track on an instance from time 0.
	//
	// Parameters:
	//   - instance: the instance index
	//   - name: the track name
	//   - loop: true to wrap at the end of the track, false to hold the last frame
	//
	// Returns:
	//   - error: ErrUnknownInstance or ErrUnknownTrack
	PlayTrackByName(instance uint32, name string, loop bool) error

	// SetAnimationTime sets the playback position of an instance in seconds. No-op for unknown instances.
	//
	// Parameters:
	//   - instance: the instance index
	//   - time: the playback time in seconds
	SetAnimationTime(instance uint32, time float32)

	// SetAnimationSpeed sets the playback speed multiplier of an instance. No-op for unknown instances.
	//
	// Parameters:
	//   - instance: the instance index
	//   - speed: the multiplier, 1 plays in real time
	SetAnimationSpeed(instance uint32, speed float32)

	// Track returns the track an instance plays, or -1 for unknown instances.
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - int: the track index
	Track(instance uint32) int

	// Time returns the playback time of an instance in seconds, or 0 for unknown instances.
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - float32: the playback time
	Time(instance uint32) float32

	// Frame returns the track texture row an instance currently reads, or 0 for unknown instances.
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - int: the frame row
	Frame(instance uint32) int

	// PrepareFrame advances every instance by deltaTime, recomputes its frame row and stages the
	// playback buffer write once Init has created the buffer.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	PrepareFrame(deltaTime float32)

	// PlaybackData returns a copy of the per-instance GPU playback records.
	//
	// Returns:
	//   - []GPUPlaybackData: one record per instance
	PlaybackData() []GPUPlaybackData

	// StagedWriteData returns and clears the pending GPU buffer writes.
	// The caller submits them via Renderer.WriteBuffers.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the pending writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// Init creates the texture bind group on the model's texture provider, uploading the textures
	// first if the model has none, and the playback buffer and bind group.
	//
	// Parameters:
	//   - r: the renderer owning the device
	//
	// Returns:
	//   - error: ErrNoModel, ErrTextureUnits or a GPU resource creation error
	Init(r renderer.Renderer) error

	// Bind sets the texture group and the playback group on a render pass. It is called once per
	// draw of the model, before the draw call.
	//
	// Parameters:
	//   - pass: the render pass
	//
	// Returns:
	//   - error: ErrNoModel or ErrNotInitialized
	Bind(pass BindGroupSetter) error

	// Release frees the playback buffer and bind group. The model's textures are owned by the model.
	Release()
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the given options applied.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new instance of Animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:           &sync.Mutex{},
		textureGroup: DefaultTextureGroup,
		maxInstances: DefaultMaxInstances,
	}
	for _, opt := range options {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	if !a.playbackGroupSet {
		a.playbackGroup = a.textureGroup + 1
	}
	return a
}

func (a *animator) Model() model.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

func (a *animator) SetModel(m model.Model) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.model = m
	for i := range a.instanceStateData {
		a.instanceStateData[i] = instanceState{speed: 1, loop: a.defaultLoop}
	}
	a.refreshLocked()
}

func (a *animator) TextureGroup() uint32 {
	return a.textureGroup
}

func (a *animator) PlaybackGroup() uint32 {
	return a.playbackGroup
}

func (a *animator) MaxInstances() uint32 {
	return a.maxInstances
}

func (a *animator) InstanceCount() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instanceCount
}

func (a *animator) AddInstance() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model == nil {
		return 0, ErrNoModel
	}
	if a.instanceCount >= a.maxInstances {
		return 0, fmt.Errorf("%w: %d", ErrInstanceLimit, a.maxInstances)
	}

	idx := a.instanceCount
	a.instanceStateData = append(a.instanceStateData, instanceState{speed: 1, loop: a.defaultLoop})
	a.instanceData = append(a.instanceData, GPUPlaybackData{})
	a.instanceCount++
	a.refreshInstanceLocked(idx)
	return idx, nil
}

func (a *animator) PlayTrack(instance uint32, track int, loop bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model == nil {
		return ErrNoModel
	}
	if instance >= a.instanceCount {
		return fmt.Errorf("%w: %d", ErrUnknownInstance, instance)
	}
	if track < 0 || track >= a.model.TrackCount() {
		return fmt.Errorf("%w: %d", ErrUnknownTrack, track)
	}

	a.instanceStateData[instance] = instanceState{track: track, speed: 1, loop: loop}
	a.refreshInstanceLocked(instance)
	return nil
}

func (a *animator) PlayTrackByName(instance uint32, name string, loop bool) error {
	m := a.Model()
	if m == nil {
		return ErrNoModel
	}
	track := m.TrackIndex(name)
	if track < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, name)
	}
	return a.PlayTrack(instance, track, loop)
}

func (a *animator) SetAnimationTime(instance uint32, time float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if instance >= a.instanceCount {
		return
	}
	a.instanceStateData[instance].time = time
	a.wrapLocked(instance)
	a.refreshInstanceLocked(instance)
}

func (a *animator) SetAnimationSpeed(instance uint32, speed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if instance >= a.instanceCount {
		return
	}
	a.instanceStateData[instance].speed = speed
}

func (a *animator) Track(instance uint32) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if instance >= a.instanceCount {
		return -1
	}
	return a.instanceStateData[instance].track
}

func (a *animator) Time(instance uint32) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if instance >= a.instanceCount {
		return 0
	}
	return a.instanceStateData[instance].time
}

func (a *animator) Frame(instance uint32) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if instance >= a.instanceCount {
		return 0
	}
	return int(a.instanceData[instance].Frame)
}

func (a *animator) PrepareFrame(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model == nil {
		return
	}
	for i := uint32(0); i < a.instanceCount; i++ {
		state := &a.instanceStateData[i]
		state.time += deltaTime * state.speed
		a.wrapLocked(i)
	}
	a.refreshLocked()

	if a.playbackProvider == nil || a.instanceCount == 0 {
		return
	}
	data := make([]byte, 0, int(a.instanceCount)*(&GPUPlaybackData{}).Size())
	for i := range a.instanceData {
		data = append(data, a.instanceData[i].Marshal()...)
	}
	a.stagedWriteData = append(a.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: a.playbackProvider,
		Binding:  PlaybackBinding,
		Offset:   0,
		Data:     data,
	})
}

func (a *animator) PlaybackData() []GPUPlaybackData {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]GPUPlaybackData, len(a.instanceData))
	copy(out, a.instanceData)
	return out
}

func (a *animator) StagedWriteData() []bind_group_provider.BufferWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	writes := a.stagedWriteData
	a.stagedWriteData = nil
	return writes
}

func (a *animator) Init(r renderer.Renderer) error {
	m := a.Model()
	if m == nil {
		return ErrNoModel
	}

	if m.TextureProvider() == nil {
		if err := UploadTextures(r, m); err != nil {
			return err
		}
	}
	textureProvider := m.TextureProvider()
	if err := checkTextureUnits(textureProvider, m.TrackCount()); err != nil {
		return fmt.Errorf("%s: %w", m.Name(), err)
	}
	if !textureProvider.Ready() {
		if err := r.InitBindGroup(textureProvider, TextureLayoutDescriptor(m.Name(), m.TrackCount()), nil, nil); err != nil {
			return fmt.Errorf("failed to create animation texture bind group for %q: %w", m.Name(), err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.playbackProvider == nil {
		provider := bind_group_provider.NewBindGroupProvider(m.Name() + " Playback")
		size := uint64(a.maxInstances) * uint64((&GPUPlaybackData{}).Size())
		if err := r.InitBindGroup(provider, PlaybackLayoutDescriptor(m.Name()), nil, map[int]uint64{PlaybackBinding: size}); err != nil {
			provider.Release()
			return fmt.Errorf("failed to create playback bind group for %q: %w", m.Name(), err)
		}
		a.playbackProvider = provider
	}

	a.logger.Printf("[Animator] %s bound: %d texture units in group %d, playback in group %d",
		m.Name(), TextureUnitCount(m.TrackCount()), a.textureGroup, a.playbackGroup)
	return nil
}

func (a *animator) Bind(pass BindGroupSetter) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model == nil {
		return ErrNoModel
	}
	textureProvider := a.model.TextureProvider()
	if textureProvider == nil || !textureProvider.Ready() || a.playbackProvider == nil || !a.playbackProvider.Ready() {
		return ErrNotInitialized
	}

	pass.SetBindGroup(a.textureGroup, textureProvider.BindGroup(), nil)
	pass.SetBindGroup(a.playbackGroup, a.playbackProvider.BindGroup(), nil)
	return nil
}

func (a *animator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.playbackProvider != nil {
		a.playbackProvider.Release()
		a.playbackProvider = nil
	}
	a.stagedWriteData = nil
}

// wrapLocked wraps a looping instance's time into [0, duration). Non-looping time is left as is,
// the frame lookup holds the last row.
func (a *animator) wrapLocked(instance uint32) {
	state := &a.instanceStateData[instance]
	track := a.trackLocked(state.track)
	if track == nil || !state.loop || track.Duration <= 0 {
		return
	}
	seconds := float64(track.Duration / ticksPerSecond(track))
	t := math.Mod(float64(state.time), seconds)
	if t < 0 {
		t += seconds
	}
	state.time = float32(t)
}

func (a *animator) refreshLocked() {
	for i := uint32(0); i < a.instanceCount; i++ {
		a.refreshInstanceLocked(i)
	}
}

// refreshInstanceLocked recomputes the GPU record of one instance from its state.
func (a *animator) refreshInstanceLocked(instance uint32) {
	state := a.instanceStateData[instance]
	record := GPUPlaybackData{Track: uint32(max(state.track, 0))}
	if a.model != nil && a.model.Skeleton() != nil {
		record.BoneCount = uint32(a.model.Skeleton().BoneCount())
	}
	if track := a.trackLocked(state.track); track != nil {
		record.FrameCount = uint32(track.FrameCount())
		record.Frame = uint32(track.FrameAt(state.time * ticksPerSecond(track)))
	}
	a.instanceData[instance] = record
}

func (a *animator) trackLocked(track int) *model.AnimationTrack {
	if a.model == nil {
		return nil
	}
	tracks := a.model.Tracks()
	if track < 0 || track >= len(tracks) {
		return nil
	}
	return &tracks[track]
}

func ticksPerSecond(track *model.AnimationTrack) float32 {
	return common.Coalesce(track.TicksPerSecond, DefaultTicksPerSecond)
}

// checkTextureUnits verifies the provider holds exactly one texture per unit, units 0 through
// TextureUnitCount(trackCount)-1.
func checkTextureUnits(provider bind_group_provider.BindGroupProvider, trackCount int) error {
	bindings := provider.TextureBindings()
	if len(bindings) != TextureUnitCount(trackCount) {
		return fmt.Errorf("%w: %d textures for %d units", ErrTextureUnits, len(bindings), TextureUnitCount(trackCount))
	}
	for unit, binding := range bindings {
		if binding != unit {
			return fmt.Errorf("%w: unit %d is empty", ErrTextureUnits, unit)
		}
	}
	return nil
}

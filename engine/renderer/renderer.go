package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoRenderTarget is returned by BeginFrame before InitRenderTarget.
	ErrNoRenderTarget = errors.New("renderer has no render target")

	// ErrFrameInProgress is returned by BeginFrame while a previous frame has not ended.
	ErrFrameInProgress = errors.New("previous frame has not ended")

	// ErrNoFrame is returned by DrawCall and EndFrame outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	label       string
	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
}

// Renderer defines the interface for the GPU resource layer.
//
// The Renderer owns a headless device and turns CPU-side staging data (combined vertex and index
// data, RGBA32F data textures, bind group layouts) into GPU resources stored on BindGroupProviders.
// Frames are drawn offscreen into a color and depth target: BeginFrame opens a render pass, the
// caller binds its groups onto FramePass, DrawCall issues indexed instanced draws and EndFrame submits.
type Renderer interface {
	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures must be initialized via InitTextureView before calling
	// this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the texture and its view
	// on the given BindGroupProvider at the specified binding index. Must be called before InitBindGroup
	// for any texture bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the texel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if the staging data is malformed or texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// InitRenderPipeline compiles the pipeline's shaders, creates one bind group layout per group
	// declared by either stage and stores the created render pipeline on p.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: an error if the pipeline is incomplete or creation fails
	InitRenderPipeline(p pipeline.Pipeline) error

	// InitRenderTarget creates the offscreen color and depth textures frames are drawn into,
	// replacing any previous target.
	//
	// Parameters:
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//   - colorFormat: the color format, matching the pipelines drawn into it
	//   - depthFormat: the depth format, TextureFormatUndefined for no depth attachment
	//
	// Returns:
	//   - error: an error if the size is zero or texture creation fails
	InitRenderTarget(width, height uint32, colorFormat, depthFormat wgpu.TextureFormat) error

	// ColorTarget returns the offscreen color texture.
	//
	// Returns:
	//   - *wgpu.Texture: the texture, or nil before InitRenderTarget
	ColorTarget() *wgpu.Texture

	// BeginFrame opens a command encoder and a render pass clearing the render target.
	//
	// Parameters:
	//   - clear: the clear color
	//
	// Returns:
	//   - error: ErrNoRenderTarget, ErrFrameInProgress or an encoder error
	BeginFrame(clear wgpu.Color) error

	// FramePass returns the render pass of the current frame for binding groups.
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the pass, or nil outside a frame
	FramePass() *wgpu.RenderPassEncoder

	// DrawCall sets the pipeline and the mesh buffers and issues one indexed draw of instanceCount
	// instances. Bind groups must already be set on FramePass.
	//
	// Parameters:
	//   - p: a pipeline created with InitRenderPipeline
	//   - meshProvider: the provider holding the vertex and index buffers
	//   - instanceCount: the number of instances
	//
	// Returns:
	//   - error: ErrNoFrame, or an error if the pipeline or the mesh buffers are missing
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32) error

	// EndFrame ends the render pass and submits the frame.
	//
	// Returns:
	//   - error: ErrNoFrame or a command buffer error
	EndFrame() error

	// Label returns the label used for the device and derived resources.
	//
	// Returns:
	//   - string: the renderer label
	Label() string

	// Device returns the underlying GPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the underlying GPU queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Release frees the device and every backend-owned GPU object.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type and options.
// The device is requested without a surface.
//
// Parameters:
//   - backendType: the backend type to use for rendering (e.g., BackendTypeWGPU)
//   - options: a variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: error if no adapter or device could be acquired
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		label:       "Main",
		backendType: backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		backend, err := newWGPURendererBackend(r.label, r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownBackend, backendType)
	}

	return r, nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) InitRenderPipeline(p pipeline.Pipeline) error {
	return r.backend.InitRenderPipeline(p)
}

func (r *renderer) InitRenderTarget(width, height uint32, colorFormat, depthFormat wgpu.TextureFormat) error {
	return r.backend.InitRenderTarget(width, height, colorFormat, depthFormat)
}

func (r *renderer) ColorTarget() *wgpu.Texture {
	return r.backend.ColorTarget()
}

func (r *renderer) BeginFrame(clear wgpu.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.BeginFrame(clear)
}

func (r *renderer) FramePass() *wgpu.RenderPassEncoder {
	return r.backend.FramePass()
}

func (r *renderer) DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32) error {
	return r.backend.DrawCall(p, meshProvider, instanceCount)
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.EndFrame()
}

func (r *renderer) Label() string {
	return r.label
}

func (r *renderer) Device() *wgpu.Device {
	return r.backend.Device()
}

func (r *renderer) Queue() *wgpu.Queue {
	return r.backend.Queue()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}

package bind_group_provider

import (
	"errors"
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrProviderKind is returned when a provider is used for resources its kind does not hold.
var ErrProviderKind = errors.New("provider kind does not hold this resource")

// ProviderKind tells the Renderer which resources a provider holds.
type ProviderKind int

const (
	// ProviderKindBuffers holds uniform and storage buffers (camera, playback state).
	ProviderKindBuffers ProviderKind = iota
	// ProviderKindMesh holds the combined vertex and index buffers of a model.
	ProviderKindMesh
	// ProviderKindTextures holds the RGBA32F animation textures of a model, one per texture unit.
	ProviderKindTextures
)

// String returns the kind name.
func (k ProviderKind) String() string {
	switch k {
	case ProviderKindBuffers:
		return "buffers"
	case ProviderKindMesh:
		return "mesh"
	case ProviderKindTextures:
		return "textures"
	default:
		return "unknown"
	}
}

// textureBinding is a texture, its view and the extent it was created with.
type textureBinding struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	extent  wgpu.Extent3D
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.RWMutex

	label string
	kind  ProviderKind

	// GPU resources below are populated by the Renderer and released by Release.

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[int]*wgpu.Buffer
	textures        map[int]textureBinding

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider holds the GPU resources of one bind group, or the mesh buffers of one model.
// A skinned model holds a mesh provider and a texture provider; each animator adds a playback
// provider and each view a camera provider.
//
// Usage pattern:
//  1. The loader or animator creates a provider of the right kind with a debug label
//  2. Renderer.InitMeshBuffers or Renderer.InitTextureView fills it
//  3. Renderer.InitBindGroup creates the layout, missing buffers and the bind group
//  4. The animator binds BindGroup() when encoding a render pass
//
// Providers are written during load and read during draws; all methods are safe for concurrent use.
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider. Calling it twice is a no-op.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Kind returns which resources the provider holds.
	//
	// Returns:
	//   - ProviderKind: the provider kind
	Kind() ProviderKind

	// Ready reports whether the bind group has been created.
	//
	// Returns:
	//   - bool: true once InitBindGroup succeeded
	Ready() bool

	// BindGroup returns the created bind group, or nil before InitBindGroup.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout, or nil before InitBindGroup.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer created for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Texture returns the GPU texture at a binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index, equal to the texture unit for texture providers
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	Texture(binding int) *wgpu.Texture

	// TextureView returns the GPU texture view at a binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// TextureExtent returns the size a texture was created with, or the zero extent if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - wgpu.Extent3D: the texture size in texels
	TextureExtent(binding int) wgpu.Extent3D

	// TextureBindings returns the bindings holding a texture, ascending.
	//
	// Returns:
	//   - []int: the bindings
	TextureBindings() []int

	// VertexBuffer returns the combined vertex buffer, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the uint32 index buffer, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices drawn per instance.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// SetBindGroup stores the bind group created by Renderer.InitBindGroup.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores the layout created by Renderer.InitBindGroup.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores the buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores a texture, its view and its size at a binding. A texture previously
	// stored at the binding is released first; textures are replaced whole, never patched.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture
	//   - tv: the view of tex
	//   - extent: the texture size
	//
	// Returns:
	//   - error: ErrProviderKind unless the provider holds textures
	SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView, extent wgpu.Extent3D) error

	// SetMeshBuffers stores the vertex and index buffers and the index count, releasing any
	// buffers stored before.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the index buffer
	//   - indexCount: the number of uint32 indices
	//
	// Returns:
	//   - error: ErrProviderKind unless the provider is a mesh provider
	SetMeshBuffers(vertex, index *wgpu.Buffer, indexCount int) error
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider. The kind defaults to ProviderKindBuffers.
//
// Parameters:
//   - label: the debug label used for every GPU resource created for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[int]*wgpu.Buffer),
		textures: make(map[int]textureBinding),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Kind() ProviderKind {
	return p.kind
}

func (p *bindGroupProvider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup != nil
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[binding].texture
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[binding].view
}

func (p *bindGroupProvider) TextureExtent(binding int) wgpu.Extent3D {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[binding].extent
}

func (p *bindGroupProvider) TextureBindings() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	bindings := make([]int, 0, len(p.textures))
	for binding := range p.textures {
		bindings = append(bindings, binding)
	}
	sort.Ints(bindings)
	return bindings
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView, extent wgpu.Extent3D) error {
	if p.kind != ProviderKindTextures {
		return ErrProviderKind
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.textures[binding]; ok {
		old.release()
	}
	p.textures[binding] = textureBinding{texture: tex, view: tv, extent: extent}
	return nil
}

func (p *bindGroupProvider) SetMeshBuffers(vertex, index *wgpu.Buffer, indexCount int) error {
	if p.kind != ProviderKindMesh {
		return ErrProviderKind
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseMeshLocked()
	p.vertexBuffer = vertex
	p.indexBuffer = index
	p.indexCount = indexCount
	return nil
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for binding, tb := range p.textures {
		tb.release()
		delete(p.textures, binding)
	}
	for binding, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	p.releaseMeshLocked()
}

func (p *bindGroupProvider) releaseMeshLocked() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}

func (t textureBinding) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

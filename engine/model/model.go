package model

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
)

// model is the implementation of the Model interface.
type model struct {
	name            string
	skeleton        *Skeleton
	tracks          []AnimationTrack
	mesh            *CombinedMesh
	textures        *EncodedTextures
	diagnostics     DiagnosticLog
	meshProvider    bind_group_provider.BindGroupProvider
	textureProvider bind_group_provider.BindGroupProvider
}

// Model defines the interface for a loaded skinned model.
// A Model owns the skeleton, the resolved animation tracks, the combined mesh buffers and the
// encoded textures derived from them. It is produced by the Loader once every load stage has
// completed, and is read-only from then on.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skeleton retrieves the bone hierarchy for this model.
	//
	// Returns:
	//   - *Skeleton: the skeleton
	Skeleton() *Skeleton

	// Tracks retrieves all animation tracks in import order.
	//
	// Returns:
	//   - []AnimationTrack: the animation tracks
	Tracks() []AnimationTrack

	// TrackCount returns the number of animation tracks.
	//
	// Returns:
	//   - int: the track count
	TrackCount() int

	// TrackNames returns the names of all animation tracks in track order.
	//
	// Returns:
	//   - []string: the track names
	TrackNames() []string

	// TrackIndex returns the index of a track by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the track name to search for
	//
	// Returns:
	//   - int: the track index, or -1 if not found
	TrackIndex(name string) int

	// Mesh retrieves the combined vertex, index and bone-weight buffers.
	//
	// Returns:
	//   - *CombinedMesh: the combined mesh
	Mesh() *CombinedMesh

	// Textures retrieves the encoded bone-weight, bind-pose and track textures.
	//
	// Returns:
	//   - *EncodedTextures: the encoded textures
	Textures() *EncodedTextures

	// Diagnostics retrieves the non-fatal findings recorded while loading.
	//
	// Returns:
	//   - DiagnosticLog: the diagnostic log
	Diagnostics() DiagnosticLog

	// VertexData returns the marshaled vertex buffer of the combined mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the index buffer of the combined mesh as bytes.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the combined mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// MeshProvider retrieves the BindGroupProvider holding the GPU vertex and index buffers,
	// or nil when the model was never uploaded.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// SetMeshProvider sets the BindGroupProvider holding the GPU mesh buffers.
	//
	// Parameters:
	//   - provider: the mesh provider
	SetMeshProvider(provider bind_group_provider.BindGroupProvider)

	// TextureProvider retrieves the BindGroupProvider holding the GPU skinning textures,
	// or nil when the model was never uploaded.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the texture provider
	TextureProvider() bind_group_provider.BindGroupProvider

	// SetTextureProvider sets the BindGroupProvider holding the GPU skinning textures.
	//
	// Parameters:
	//   - provider: the texture provider
	SetTextureProvider(provider bind_group_provider.BindGroupProvider)

	// Release releases any GPU resources held by the model's providers.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		skeleton: &Skeleton{NameToID: map[string]int{}},
		mesh:     &CombinedMesh{},
		textures: &EncodedTextures{},
	}
	for _, opt := range options {
		opt(m)
	}
	if m.diagnostics == nil {
		m.diagnostics = NewDiagnosticLog(nil)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Tracks() []AnimationTrack {
	return m.tracks
}

func (m *model) TrackCount() int {
	return len(m.tracks)
}

func (m *model) TrackNames() []string {
	names := make([]string, len(m.tracks))
	for i, t := range m.tracks {
		names[i] = t.Name
	}
	return names
}

func (m *model) TrackIndex(name string) int {
	for i, t := range m.tracks {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Mesh() *CombinedMesh {
	return m.mesh
}

func (m *model) Textures() *EncodedTextures {
	return m.textures
}

func (m *model) Diagnostics() DiagnosticLog {
	return m.diagnostics
}

func (m *model) VertexData() []byte {
	data := make([]byte, 0, len(m.mesh.Vertices)*40)
	for i := range m.mesh.Vertices {
		data = append(data, m.mesh.Vertices[i].Marshal()...)
	}
	return data
}

func (m *model) IndexData() []byte {
	data := make([]byte, len(m.mesh.Indices)*4)
	for i, idx := range m.mesh.Indices {
		binary.LittleEndian.PutUint32(data[i*4:], idx)
	}
	return data
}

func (m *model) IndexCount() int {
	return len(m.mesh.Indices)
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) SetMeshProvider(provider bind_group_provider.BindGroupProvider) {
	m.meshProvider = provider
}

func (m *model) TextureProvider() bind_group_provider.BindGroupProvider {
	return m.textureProvider
}

func (m *model) SetTextureProvider(provider bind_group_provider.BindGroupProvider) {
	m.textureProvider = provider
}

func (m *model) Release() {
	if m.meshProvider != nil {
		m.meshProvider.Release()
	}
	if m.textureProvider != nil {
		m.textureProvider.Release()
	}
}

package model

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy of the Model.
//
// Parameters:
//   - skeleton: the skeleton to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		if skeleton != nil {
			m.skeleton = skeleton
		}
	}
}

// WithTracks is an option builder that sets the animation tracks of the Model.
//
// Parameters:
//   - tracks: the animation tracks in import order
//
// Returns:
//   - ModelBuilderOption: a function that applies the tracks option to a model
func WithTracks(tracks []AnimationTrack) ModelBuilderOption {
	return func(m *model) {
		m.tracks = tracks
	}
}

// WithMesh is an option builder that sets the combined mesh of the Model.
//
// Parameters:
//   - mesh: the combined mesh
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(mesh *CombinedMesh) ModelBuilderOption {
	return func(m *model) {
		if mesh != nil {
			m.mesh = mesh
		}
	}
}

// WithTextures is an option builder that sets the encoded textures of the Model.
//
// Parameters:
//   - textures: the encoded textures
//
// Returns:
//   - ModelBuilderOption: a function that applies the textures option to a model
func WithTextures(textures *EncodedTextures) ModelBuilderOption {
	return func(m *model) {
		if textures != nil {
			m.textures = textures
		}
	}
}

// WithDiagnostics is an option builder that sets the diagnostic log of the Model.
//
// Parameters:
//   - diagnostics: the diagnostic log recorded while loading
//
// Returns:
//   - ModelBuilderOption: a function that applies the diagnostics option to a model
func WithDiagnostics(diagnostics DiagnosticLog) ModelBuilderOption {
	return func(m *model) {
		m.diagnostics = diagnostics
	}
}

// WithMeshProvider is an option builder that sets the BindGroupProvider for mesh GPU resources.
//
// Parameters:
//   - provider: the BindGroupProvider holding vertex/index buffers
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh provider option to a model
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.meshProvider = provider
	}
}

// WithTextureProvider is an option builder that sets the BindGroupProvider for skinning textures.
//
// Parameters:
//   - provider: the BindGroupProvider holding the texture views
//
// Returns:
//   - ModelBuilderOption: a function that applies the texture provider option to a model
func WithTextureProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.textureProvider = provider
	}
}

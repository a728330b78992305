package renderer

import "errors"

// ErrUnknownBackend is returned by NewRenderer for a backend type it cannot create.
var ErrUnknownBackend = errors.New("unknown renderer backend")

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the headless WebGPU backend.
	BackendTypeWGPU RendererBackendType = iota
)

// String returns the backend name.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "unknown"
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

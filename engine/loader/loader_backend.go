package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// loaderBackend defines the generic interface for importing scenes from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details and
// hand back the format-neutral import types.
type loaderBackend interface {
	// Load performs a full scene import from the given file path.
	// This extracts the node tree, meshes with bone weights, and animation clips.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *model.ImportedScene: the imported scene
	//   - error: error if loading fails
	Load(path string) (*model.ImportedScene, error)

	// LoadReader imports a scene from a reader stream.
	//
	// Parameters:
	//   - name: the name given to the imported scene
	//   - r: the reader providing scene data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *model.ImportedScene: the imported scene
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*model.ImportedScene, error)

	// Extensions returns the lower-case file extensions, with leading dot, this backend reads.
	//
	// Returns:
	//   - []string: the supported extensions
	Extensions() []string
}

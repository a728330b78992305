// Package loader imports skinned, animated scenes and runs them through the load pipeline: bone
// hierarchy, track sampling, vertex/weight packing and texture encoding, followed by an optional
// GPU upload. Loaded models are cached by path or name.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-anim/engine/skinning"
)

var (
	// ErrIncompleteScene is returned when the imported document has no nodes to build a scene from.
	ErrIncompleteScene = errors.New("incomplete scene")

	// ErrNoRootNode is returned when the imported scene has no root node.
	ErrNoRootNode = errors.New("scene has no root node")

	// ErrUnsupportedFormat is returned for a file extension or container no backend reads.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

const (
	packQueueSize   = 64
	packIdleTimeout = time.Second
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	renderer renderer.Renderer
	logger   *log.Logger

	textureWidth    int
	weightTolerance float64
	workers         int
	profiling       bool

	// packPool is shared by every load and only exists when workers > 1.
	packPool worker.DynamicWorkerPool

	modelCache map[string]model.Model

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching skinned models.
// It abstracts the file format behind a backend that produces the import types, then builds the
// skeleton, the animation tracks, the combined mesh and the encoded textures. A failed load
// returns an error and caches nothing.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error)

	// LoadScene builds a model from an already imported scene and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key and model name
	//   - scene: the imported scene
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if the scene is incomplete or the pipeline fails
	LoadScene(name string, scene *model.ImportedScene) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Evict removes a model from the cache and releases its GPU resources.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - bool: true if a model was removed
	Evict(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		modelCache: make(map[string]model.Model),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	l.textureWidth = common.TextureWidth(l.textureWidth)
	l.weightTolerance = common.Coalesce(l.weightTolerance, skinning.DefaultWeightTolerance)
	l.workers = max(l.workers, 1)
	if l.workers > 1 {
		l.packPool = worker.NewDynamicWorkerPool(l.workers, packQueueSize, packIdleTimeout)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	prof := l.newProfiler(path)
	var scene *model.ImportedScene
	err = prof.Measure("import", func() error {
		var importErr error
		scene, importErr = backend.Load(path)
		return importErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	m, err := l.importedToModel(scene.Name, scene, prof)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	prof.Report()

	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, ErrUnsupportedFormat
	}

	prof := l.newProfiler(name)
	var scene *model.ImportedScene
	err := prof.Measure("import", func() error {
		var importErr error
		scene, importErr = l.backend.LoadReader(name, r, isGLB)
		return importErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	m, err := l.importedToModel(name, scene, prof)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	prof.Report()

	return l.store(name, m), nil
}

func (l *loader) LoadScene(name string, scene *model.ImportedScene) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	prof := l.newProfiler(name)
	m, err := l.importedToModel(name, scene, prof)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene %q: %w", name, err)
	}
	prof.Report()

	return l.store(name, m), nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	m, ok := l.modelCache[name]
	delete(l.modelCache, name)
	l.mu.Unlock()

	if ok {
		m.Release()
	}
	return ok
}

// store caches m under key unless a concurrent load already stored a model there, in which case
// that model is kept and m is released.
func (l *loader) store(key string, m model.Model) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.modelCache[key]; ok {
		m.Release()
		return existing
	}
	l.modelCache[key] = m
	return m
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l.backend == nil || !slices.Contains(l.backend.Extensions(), ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return l.backend, nil
}

func (l *loader) newProfiler(label string) *profiler.Profiler {
	if !l.profiling {
		return nil
	}
	return profiler.NewProfiler(label, l.logger)
}

// importedToModel runs the load pipeline over an imported scene: the bone hierarchy is built from
// the node tree, every clip is sampled against it, the meshes are packed into one combined mesh
// (recording bind poses on the skeleton), and the weight, bind-pose and track textures are encoded.
// When a Renderer is configured the mesh buffers and textures are uploaded.
//
// Parameters:
//   - name: the model name
//   - scene: the imported scene
//   - prof: the phase profiler, nil when profiling is off
//
// Returns:
//   - model.Model: the engine-ready model
//   - error: error if any stage fails, no partial model is returned
func (l *loader) importedToModel(name string, scene *model.ImportedScene, prof *profiler.Profiler) (model.Model, error) {
	if scene == nil {
		return nil, ErrIncompleteScene
	}
	if scene.Root == nil {
		return nil, ErrNoRootNode
	}
	name = common.Coalesce(name, scene.Name)

	diagnostics := model.NewDiagnosticLog(l.logger)

	var skeleton *model.Skeleton
	err := prof.Measure("skeleton", func() error {
		var buildErr error
		skeleton, buildErr = animation.BuildSkeleton(scene.Root)
		return buildErr
	})
	if err != nil {
		return nil, fmt.Errorf("skeleton build failed: %w", err)
	}

	var tracks []model.AnimationTrack
	err = prof.Measure("tracks", func() error {
		var sampleErr error
		tracks, sampleErr = animation.SampleTracks(scene.Animations, skeleton, diagnostics)
		return sampleErr
	})
	if err != nil {
		return nil, fmt.Errorf("track sampling failed: %w", err)
	}

	opts := []skinning.PackerBuilderOption{
		skinning.WithTolerance(l.weightTolerance),
		skinning.WithDiagnostics(diagnostics),
		skinning.WithLogger(l.logger),
	}
	if l.packPool != nil {
		opts = append(opts, skinning.WithPool(l.packPool))
	}
	packer := skinning.NewPacker(opts...)
	var mesh *model.CombinedMesh
	err = prof.Measure("pack", func() error {
		var packErr error
		mesh, packErr = packer.Combine(scene.Meshes, skeleton)
		return packErr
	})
	if err != nil {
		return nil, fmt.Errorf("mesh packing failed: %w", err)
	}

	textures := &model.EncodedTextures{}
	_ = prof.Measure("encode", func() error {
		textures.BoneWeights = skinning.EncodeWeights(mesh, l.textureWidth)
		textures.BindPose = animation.EncodeBindPose(skeleton, l.textureWidth)
		textures.Tracks = animation.EncodeTracks(tracks, skeleton)
		return nil
	})

	m := model.NewModel(
		model.WithName(name),
		model.WithSkeleton(skeleton),
		model.WithTracks(tracks),
		model.WithMesh(mesh),
		model.WithTextures(textures),
		model.WithDiagnostics(diagnostics),
	)

	if l.renderer != nil {
		err = prof.Measure("upload", func() error {
			return l.upload(m)
		})
		if err != nil {
			m.Release()
			return nil, err
		}
	}

	l.logger.Printf("[Loader] %s: %d bones, %d tracks, %d vertices, %d weight entries, %d diagnostics",
		name, skeleton.BoneCount(), len(tracks), mesh.VertexCount(), len(mesh.BoneWeights), len(diagnostics.Entries()))

	return m, nil
}

// upload creates the mesh buffers and the animation textures of m on the GPU.
func (l *loader) upload(m model.Model) error {
	if m.IndexCount() == 0 {
		return animator.UploadTextures(l.renderer, m)
	}

	provider := bind_group_provider.NewBindGroupProvider(m.Name()+" Mesh", bind_group_provider.WithKind(bind_group_provider.ProviderKindMesh))
	if err := l.renderer.InitMeshBuffers(provider, m.VertexData(), m.IndexData(), m.IndexCount()); err != nil {
		provider.Release()
		return fmt.Errorf("failed to init mesh buffers for %q: %w", m.Name(), err)
	}
	m.SetMeshProvider(provider)

	if err := animator.UploadTextures(l.renderer, m); err != nil {
		return err
	}
	return nil
}

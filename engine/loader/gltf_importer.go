package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/qmuntal/gltf"
)

// gltfSceneRootSuffix is appended to the scene name to name the synthetic root node.
const gltfSceneRootSuffix = "_scene_root"

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce a complete ImportedScene.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts the node tree, meshes and animations.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedScene: the imported scene
	//   - error: error if import fails
	Import(path string) (*model.ImportedScene, error)

	// ImportReader loads a glTF document from a reader and extracts all data.
	// The reader should provide a complete glTF JSON or GLB binary stream.
	//
	// Parameters:
	//   - name: the scene name
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *model.ImportedScene: the imported scene
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedScene, error)

	// ImportDocument extracts all data from an already decoded document.
	//
	// Parameters:
	//   - name: the scene name
	//   - doc: the document
	//
	// Returns:
	//   - *model.ImportedScene: the imported scene
	//   - error: error if import fails
	ImportDocument(name string, doc *gltf.Document) (*model.ImportedScene, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedScene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return imp.importFromParser(parser, gltfExtractModelName(parser.Document(), path))
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedScene, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}

	return imp.importFromParser(parser, gltfExtractModelName(parser.Document(), name))
}

func (imp *gltfImporterImpl) ImportDocument(name string, doc *gltf.Document) (*model.ImportedScene, error) {
	parser := newGLTFParser()
	parser.SetDocument(doc)
	return imp.importFromParser(parser, gltfExtractModelName(doc, name))
}

// importFromParser performs a full import from a parser that has already loaded a document.
// Meshes are collected by a depth-first walk of the node tree; a mesh used by several nodes with
// the same skin is imported once and referenced by each of them.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - name: the scene name
//
// Returns:
//   - *model.ImportedScene: the imported scene
//   - error: error if any extraction fails
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, name string) (*model.ImportedScene, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("%w: no document after parsing", ErrIncompleteScene)
	}

	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	meshExtractor := newGLTFMeshExtractor(parser, skeletonExtractor)
	animationExtractor := newGLTFAnimationExtractor(parser, skeletonExtractor)

	root, nodes, err := skeletonExtractor.ExtractNodeTree(name + gltfSceneRootSuffix)
	if err != nil {
		return nil, err
	}

	scene := &model.ImportedScene{Name: name, Root: root}

	type meshKey struct{ mesh, skin int }
	imported := make(map[meshKey][]int)

	roots, _ := skeletonExtractor.RootNodes()
	visited := make(map[int]bool, len(nodes))
	var walk func(nodeIndex int) error
	walk = func(nodeIndex int) error {
		if visited[nodeIndex] {
			return nil
		}
		visited[nodeIndex] = true

		gltfNode := doc.Nodes[nodeIndex]
		if gltfNode.Mesh != nil {
			key := meshKey{mesh: int(*gltfNode.Mesh), skin: gltfSkinOf(doc, nodeIndex)}
			indices, ok := imported[key]
			if !ok {
				meshes, err := meshExtractor.ExtractMesh(key.mesh, key.skin)
				if err != nil {
					return fmt.Errorf("node %q: %w", skeletonExtractor.NodeName(nodeIndex), err)
				}
				for _, m := range meshes {
					indices = append(indices, len(scene.Meshes))
					scene.Meshes = append(scene.Meshes, m)
				}
				imported[key] = indices
			}
			nodes[nodeIndex].Meshes = append(nodes[nodeIndex].Meshes, indices...)
		}

		for _, c := range gltfNode.Children {
			if err := walk(int(c)); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r); err != nil {
			return nil, fmt.Errorf("mesh extraction failed: %w", err)
		}
	}

	if scene.Animations, err = animationExtractor.ExtractAllAnimations(); err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return scene, nil
}

// gltfExtractModelName picks the scene name: the base name of the fallback path without its
// extension, then the active scene name, then the first mesh name, then "model".
//
// Parameters:
//   - doc: the document
//   - fallbackPath: a file path or caller-supplied name, may be empty
//
// Returns:
//   - string: the name
func gltfExtractModelName(doc *gltf.Document, fallbackPath string) string {
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
			return name
		}
	}
	if doc != nil {
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) && doc.Scenes[*doc.Scene].Name != "" {
			return doc.Scenes[*doc.Scene].Name
		}
		if len(doc.Meshes) > 0 && doc.Meshes[0].Name != "" {
			return doc.Meshes[0].Name
		}
	}
	return "model"
}

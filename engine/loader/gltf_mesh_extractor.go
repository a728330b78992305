package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser   gltfParser
	skeleton gltfSkeletonExtractor
}

// gltfMeshExtractor converts glTF mesh primitives into imported meshes with per-bone weight lists.
type gltfMeshExtractor interface {
	// ExtractMesh converts every primitive of a mesh into one imported mesh. When skinIndex is
	// valid, JOINTS_0/WEIGHTS_0 are resolved through the skin into named bones whose offset is the
	// joint's inverse bind matrix. Zero weights are dropped.
	//
	// Parameters:
	//   - meshIndex: the glTF mesh index
	//   - skinIndex: the glTF skin index, -1 for an unskinned mesh
	//
	// Returns:
	//   - []model.ImportedMesh: one mesh per primitive
	//   - error: error if an accessor cannot be read or a primitive is not a triangle list
	ExtractMesh(meshIndex, skinIndex int) ([]model.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a mesh extractor reading from parser's document.
//
// Parameters:
//   - parser: the parser holding the document
//   - skeleton: the extractor used for skin data and joint names
//
// Returns:
//   - gltfMeshExtractor: the extractor
func newGLTFMeshExtractor(parser gltfParser, skeleton gltfSkeletonExtractor) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, skeleton: skeleton}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex, skinIndex int) ([]model.ImportedMesh, error) {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", meshIndex)
	}
	mesh := doc.Meshes[meshIndex]

	meshName := mesh.Name
	if meshName == "" {
		meshName = fmt.Sprintf("mesh_%d", meshIndex)
	}

	var offsets []mgl32.Mat4
	if skinIndex >= 0 {
		var err error
		offsets, err = e.skeleton.InverseBindMatrices(skinIndex)
		if err != nil {
			return nil, err
		}
	}

	out := make([]model.ImportedMesh, 0, len(mesh.Primitives))
	for i, prim := range mesh.Primitives {
		name := meshName
		if len(mesh.Primitives) > 1 {
			name = fmt.Sprintf("%s_%d", meshName, i)
		}
		imported, err := e.extractPrimitive(prim, name, skinIndex, offsets)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", meshName, i, err)
		}
		out = append(out, imported)
	}
	return out, nil
}

// extractPrimitive converts one triangle-list primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltf.Primitive, name string, skinIndex int, offsets []mgl32.Mat4) (model.ImportedMesh, error) {
	doc := e.parser.Document()
	out := model.ImportedMesh{Name: name}

	if prim.Mode != gltf.PrimitiveTriangles {
		return out, fmt.Errorf("unsupported primitive mode %v, only triangle lists are supported", prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return out, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return out, fmt.Errorf("read positions: %w", err)
	}
	out.Positions = positions

	if normalIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if out.Normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIdx], nil); err != nil {
			return out, fmt.Errorf("read normals: %w", err)
		}
	}
	if texIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if out.TexCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[texIdx], nil); err != nil {
			return out, fmt.Errorf("read texture coordinates: %w", err)
		}
	}

	if prim.Indices != nil {
		if out.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return out, fmt.Errorf("read indices: %w", err)
		}
	} else {
		out.Indices = make([]uint32, len(positions))
		for i := range out.Indices {
			out.Indices[i] = uint32(i)
		}
	}

	if skinIndex < 0 {
		return out, nil
	}
	jointsIdx, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightsIdx, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if !hasJoints || !hasWeights {
		return out, nil
	}

	joints, err := modeler.ReadJoints(doc, doc.Accessors[jointsIdx], nil)
	if err != nil {
		return out, fmt.Errorf("read joints: %w", err)
	}
	weights, err := modeler.ReadWeights(doc, doc.Accessors[weightsIdx], nil)
	if err != nil {
		return out, fmt.Errorf("read weights: %w", err)
	}

	skin := doc.Skins[skinIndex]
	perJoint := make([][]model.VertexWeight, len(skin.Joints))
	for v := range min(len(joints), len(weights), len(positions)) {
		for k := range 4 {
			w := weights[v][k]
			if w <= 0 {
				continue
			}
			slot := int(joints[v][k])
			if slot >= len(skin.Joints) {
				return out, fmt.Errorf("vertex %d references joint %d of a %d-joint skin", v, slot, len(skin.Joints))
			}
			perJoint[slot] = append(perJoint[slot], model.VertexWeight{VertexID: uint32(v), Weight: w})
		}
	}

	// Bones follow skin joint order; joints without influence on this primitive are left out.
	for slot, vw := range perJoint {
		if len(vw) == 0 {
			continue
		}
		out.Bones = append(out.Bones, model.ImportedMeshBone{
			Name:         e.skeleton.NodeName(int(skin.Joints[slot])),
			OffsetMatrix: offsets[slot],
			Weights:      vw,
		})
	}
	return out, nil
}

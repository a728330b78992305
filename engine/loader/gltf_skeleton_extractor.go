package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor builds the imported node tree of a glTF document and reads skin data.
// Every node of the tree is a potential bone; the skeleton builder decides ids from the tree.
type gltfSkeletonExtractor interface {
	// RootNodes returns the node indices the tree hangs from: the nodes of the document's scene,
	// the first scene when none is selected, or every parentless node when there are no scenes.
	//
	// Returns:
	//   - []int: the root node indices
	//   - error: ErrIncompleteScene when the document has no nodes, ErrNoRootNode when no root exists
	RootNodes() ([]int, error)

	// ExtractNodeTree builds the node tree under a synthetic root named rootName whose children are
	// the root nodes in order.
	//
	// Parameters:
	//   - rootName: the synthetic root name
	//
	// Returns:
	//   - *model.ImportedNode: the synthetic root
	//   - map[int]*model.ImportedNode: the imported node of each reachable glTF node index
	//   - error: error if the document has no usable roots
	ExtractNodeTree(rootName string) (*model.ImportedNode, map[int]*model.ImportedNode, error)

	// NodeName returns the name of a node, node_<index> when it has none.
	//
	// Parameters:
	//   - nodeIndex: the glTF node index
	//
	// Returns:
	//   - string: the node name
	NodeName(nodeIndex int) string

	// InverseBindMatrices reads the inverse bind matrices of a skin, one per joint.
	// Joints beyond the accessor, or all of them when the skin has none, get identity.
	//
	// Parameters:
	//   - skinIndex: the glTF skin index
	//
	// Returns:
	//   - []mgl32.Mat4: the matrices, index-aligned with the skin's joints
	//   - error: error if the accessor cannot be read
	InverseBindMatrices(skinIndex int) ([]mgl32.Mat4, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a skeleton extractor reading from parser's document.
//
// Parameters:
//   - parser: the parser holding the document
//
// Returns:
//   - gltfSkeletonExtractor: the extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) RootNodes() ([]int, error) {
	doc := e.parser.Document()
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, ErrIncompleteScene
	}

	var roots []int
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		for _, n := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(n))
		}
	case len(doc.Scenes) > 0:
		for _, n := range doc.Scenes[0].Nodes {
			roots = append(roots, int(n))
		}
	default:
		isChild := make([]bool, len(doc.Nodes))
		for _, node := range doc.Nodes {
			for _, c := range node.Children {
				if int(c) < len(isChild) {
					isChild[c] = true
				}
			}
		}
		for i, child := range isChild {
			if !child {
				roots = append(roots, i)
			}
		}
	}

	valid := roots[:0]
	for _, r := range roots {
		if r >= 0 && r < len(doc.Nodes) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoRootNode
	}
	return valid, nil
}

func (e *gltfSkeletonExtractorImpl) ExtractNodeTree(rootName string) (*model.ImportedNode, map[int]*model.ImportedNode, error) {
	roots, err := e.RootNodes()
	if err != nil {
		return nil, nil, err
	}

	doc := e.parser.Document()
	nodes := make(map[int]*model.ImportedNode, len(doc.Nodes))
	root := model.NewImportedNode(rootName)

	// Depth-first with an explicit stack; nodes already placed are not revisited, so a malformed
	// document with shared or cyclic children still yields a tree.
	type pending struct {
		index  int
		parent *model.ImportedNode
	}
	stack := make([]pending, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{index: roots[i], parent: root})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := nodes[top.index]; seen {
			continue
		}

		n := model.NewImportedNode(e.NodeName(top.index))
		nodes[top.index] = n
		top.parent.AddChildren(n)

		children := doc.Nodes[top.index].Children
		for i := len(children) - 1; i >= 0; i-- {
			c := int(children[i])
			if c < 0 || c >= len(doc.Nodes) {
				return nil, nil, fmt.Errorf("node %d references missing child %d", top.index, c)
			}
			stack = append(stack, pending{index: c, parent: n})
		}
	}

	return root, nodes, nil
}

func (e *gltfSkeletonExtractorImpl) NodeName(nodeIndex int) string {
	doc := e.parser.Document()
	if nodeIndex >= 0 && nodeIndex < len(doc.Nodes) && doc.Nodes[nodeIndex].Name != "" {
		return doc.Nodes[nodeIndex].Name
	}
	return fmt.Sprintf("node_%d", nodeIndex)
}

func (e *gltfSkeletonExtractorImpl) InverseBindMatrices(skinIndex int) ([]mgl32.Mat4, error) {
	doc := e.parser.Document()
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin %d out of range", skinIndex)
	}
	skin := doc.Skins[skinIndex]

	out := make([]mgl32.Mat4, len(skin.Joints))
	for i := range out {
		out[i] = mgl32.Ident4()
	}
	if skin.InverseBindMatrices == nil {
		return out, nil
	}

	data, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read inverse bind matrices of skin %d: %w", skinIndex, err)
	}
	matrices, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("skin %d inverse bind matrices have unsupported type %T", skinIndex, data)
	}
	for i := range min(len(out), len(matrices)) {
		out[i] = gltfColumnsToMat4(matrices[i])
	}
	return out, nil
}

// gltfColumnsToMat4 converts a glTF MAT4 element, stored as four columns, into an mgl32 matrix.
func gltfColumnsToMat4(cols [4][4]float32) mgl32.Mat4 {
	var m mgl32.Mat4
	for c := range 4 {
		for r := range 4 {
			m[c*4+r] = cols[c][r]
		}
	}
	return m
}

// gltfSkinOf returns the skin index of a node, or -1 when the node is not skinned.
func gltfSkinOf(doc *gltf.Document, nodeIndex int) int {
	node := doc.Nodes[nodeIndex]
	if node.Skin == nil || int(*node.Skin) >= len(doc.Skins) {
		return -1
	}
	return int(*node.Skin)
}

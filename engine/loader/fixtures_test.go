package loader

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// quietLogger discards all output.
func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// mat4Columns converts an mgl32 matrix into the glTF MAT4 column layout.
func mat4Columns(m mgl32.Mat4) [4][4]float32 {
	var cols [4][4]float32
	for c := range 4 {
		for r := range 4 {
			cols[c][r] = m[c*4+r]
		}
	}
	return cols
}

// skinnedDocument builds a two-joint skinned triangle with one animation:
//
//	scene: hips -> spine, body (mesh 0, skin 0)
//	skin:  joints [hips, spine], spine's inverse bind matrix translates by -1 on y
//	"wave": rotation keys on spine, translation keys on hips
func skinnedDocument() *gltf.Document {
	doc := gltf.NewDocument()

	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	normals := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 1, 0, 0}, {0, 0, 0, 0}, {1, 0, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{0.6, 0.4, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}})
	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		mat4Columns(mgl32.Ident4()),
		mat4Columns(mgl32.Translate3D(0, -1, 0)),
	})

	doc.Meshes = []*gltf.Mesh{{
		Name: "body_mesh",
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(indices),
			Attributes: map[string]int{
				gltf.POSITION:  positions,
				gltf.NORMAL:    normals,
				gltf.JOINTS_0:  joints,
				gltf.WEIGHTS_0: weights,
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "hips", Children: []int{1}},
		{Name: "spine"},
		{Name: "body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
	}
	doc.Skins = []*gltf.Skin{{Joints: []int{0, 1}, InverseBindMatrices: gltf.Index(ibm)}}
	doc.Scenes[0].Nodes = []int{0, 2}

	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	rotations := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{0, 0, 0, 1}, {0, 0, 0.7071068, 0.7071068}})
	translations := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {0, 2, 0}})
	doc.Animations = []*gltf.Animation{{
		Name: "wave",
		Samplers: []*gltf.AnimationSampler{
			{Input: times, Output: rotations},
			{Input: times, Output: translations},
		},
		Channels: []*gltf.Channel{
			{Sampler: gltf.Index(0), Target: gltf.ChannelTarget{Node: gltf.Index(1), Path: gltf.TRSRotation}},
			{Sampler: gltf.Index(1), Target: gltf.ChannelTarget{Node: gltf.Index(0), Path: gltf.TRSTranslation}},
		},
	}}

	return doc
}

// writeGLB saves doc as a GLB file in a temporary directory.
func writeGLB(t *testing.T, doc *gltf.Document, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return path
}

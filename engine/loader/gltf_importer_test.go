package loader

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestImportDocumentNodeTree(t *testing.T) {
	scene, err := newGLTFImporter().ImportDocument("fixture", skinnedDocument())
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	if scene.Name != "fixture" {
		t.Errorf("scene name: got %q, want fixture", scene.Name)
	}
	root := scene.Root
	if root.Name != "fixture"+gltfSceneRootSuffix {
		t.Fatalf("root name: got %q", root.Name)
	}
	if len(root.Children) != 2 || root.Children[0].Name != "hips" || root.Children[1].Name != "body" {
		t.Fatalf("root children: got %v", root.Children)
	}
	hips := root.Children[0]
	if len(hips.Children) != 1 || hips.Children[0].Name != "spine" || hips.Children[0].Parent != hips {
		t.Errorf("hips children: got %v", hips.Children)
	}
	if body := root.Children[1]; !reflect.DeepEqual(body.Meshes, []int{0}) {
		t.Errorf("body meshes: got %v, want [0]", body.Meshes)
	}
}

func TestImportDocumentMeshWeights(t *testing.T) {
	scene, err := newGLTFImporter().ImportDocument("fixture", skinnedDocument())
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(scene.Meshes))
	}

	mesh := scene.Meshes[0]
	if mesh.Name != "body_mesh" {
		t.Errorf("mesh name: got %q", mesh.Name)
	}
	if !reflect.DeepEqual(mesh.Indices, []uint32{0, 1, 2}) {
		t.Errorf("indices: got %v", mesh.Indices)
	}
	if len(mesh.Positions) != 3 || len(mesh.Normals) != 3 {
		t.Fatalf("got %d positions, %d normals", len(mesh.Positions), len(mesh.Normals))
	}
	if len(mesh.Bones) != 2 {
		t.Fatalf("got %d bones, want 2", len(mesh.Bones))
	}

	hips, spine := mesh.Bones[0], mesh.Bones[1]
	if hips.Name != "hips" || spine.Name != "spine" {
		t.Fatalf("bone names: got %q, %q", hips.Name, spine.Name)
	}
	wantHips := []model.VertexWeight{{VertexID: 0, Weight: 0.6}, {VertexID: 1, Weight: 1}}
	if !reflect.DeepEqual(hips.Weights, wantHips) {
		t.Errorf("hips weights: got %v, want %v", hips.Weights, wantHips)
	}
	wantSpine := []model.VertexWeight{{VertexID: 0, Weight: 0.4}, {VertexID: 2, Weight: 1}}
	if !reflect.DeepEqual(spine.Weights, wantSpine) {
		t.Errorf("spine weights: got %v, want %v", spine.Weights, wantSpine)
	}
	if !hips.OffsetMatrix.ApproxEqual(mgl32.Ident4()) {
		t.Errorf("hips offset: got %v", hips.OffsetMatrix)
	}
	if !spine.OffsetMatrix.ApproxEqual(mgl32.Translate3D(0, -1, 0)) {
		t.Errorf("spine offset: got %v", spine.OffsetMatrix)
	}
}

func TestImportDocumentAnimation(t *testing.T) {
	scene, err := newGLTFImporter().ImportDocument("fixture", skinnedDocument())
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(scene.Animations) != 1 {
		t.Fatalf("got %d animations, want 1", len(scene.Animations))
	}

	anim := scene.Animations[0]
	if anim.Name != "wave" || anim.Duration != 1 || anim.TicksPerSecond != gltfTicksPerSecond {
		t.Errorf("animation header: got %q duration %v tps %v", anim.Name, anim.Duration, anim.TicksPerSecond)
	}
	if len(anim.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(anim.Channels))
	}

	spine := anim.Channels[0]
	if spine.NodeName != "spine" || len(spine.RotationKeys) != 2 || len(spine.PositionKeys) != 0 {
		t.Errorf("spine channel: got %+v", spine)
	}
	if spine.RotationKeys[1].Time != 1 || spine.RotationKeys[1].Value[3] < 0.7 {
		t.Errorf("spine key 1: got %+v", spine.RotationKeys[1])
	}

	hips := anim.Channels[1]
	if hips.NodeName != "hips" || len(hips.PositionKeys) != 2 {
		t.Fatalf("hips channel: got %+v", hips)
	}
	if hips.PositionKeys[1].Value != [3]float32{0, 2, 0} {
		t.Errorf("hips key 1: got %v", hips.PositionKeys[1].Value)
	}
}

func TestImportCubicSplineUsesValuesOnly(t *testing.T) {
	doc := skinnedDocument()
	spline := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{
		{9, 9, 9}, {1, 0, 0}, {9, 9, 9},
		{9, 9, 9}, {2, 0, 0}, {9, 9, 9},
	})
	doc.Animations[0].Samplers[1].Output = spline
	doc.Animations[0].Samplers[1].Interpolation = gltf.InterpolationCubicSpline

	scene, err := newGLTFImporter().ImportDocument("fixture", doc)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	keys := scene.Animations[0].Channels[1].PositionKeys
	if len(keys) != 2 || keys[0].Value != [3]float32{1, 0, 0} || keys[1].Value != [3]float32{2, 0, 0} {
		t.Errorf("cubic-spline keys: got %+v", keys)
	}
}

func TestImportSharedMeshImportedOnce(t *testing.T) {
	doc := skinnedDocument()
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "body_copy", Mesh: gltf.Index(0), Skin: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 3)

	scene, err := newGLTFImporter().ImportDocument("fixture", doc)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Errorf("got %d meshes, want 1", len(scene.Meshes))
	}
	copyNode := scene.Root.Children[2]
	if copyNode.Name != "body_copy" || !reflect.DeepEqual(copyNode.Meshes, []int{0}) {
		t.Errorf("copy node: got %q meshes %v", copyNode.Name, copyNode.Meshes)
	}
}

func TestImportUnnamedNodesAndParentlessRoots(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Scene = nil
	doc.Scenes = nil
	doc.Nodes = []*gltf.Node{{Children: []int{1}}, {}, {Name: "loose"}}

	scene, err := newGLTFImporter().ImportDocument("bare", doc)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(scene.Root.Children) != 2 {
		t.Fatalf("got %d roots, want 2", len(scene.Root.Children))
	}
	if got := scene.Root.Children[0].Name; got != "node_0" {
		t.Errorf("unnamed root: got %q, want node_0", got)
	}
	if got := scene.Root.Children[0].Children[0].Name; got != "node_1" {
		t.Errorf("unnamed child: got %q, want node_1", got)
	}
	if got := scene.Root.Children[1].Name; got != "loose" {
		t.Errorf("second root: got %q, want loose", got)
	}
}

func TestImportIncompleteDocuments(t *testing.T) {
	_, err := newGLTFImporter().ImportDocument("empty", gltf.NewDocument())
	if !errors.Is(err, ErrIncompleteScene) {
		t.Errorf("no nodes: got %v, want ErrIncompleteScene", err)
	}

	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "orphan"}}
	_, err = newGLTFImporter().ImportDocument("rootless", doc)
	if !errors.Is(err, ErrNoRootNode) {
		t.Errorf("empty scene: got %v, want ErrNoRootNode", err)
	}
}

func TestImportRejectsNonTriangleMesh(t *testing.T) {
	doc := skinnedDocument()
	doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveLines

	if _, err := newGLTFImporter().ImportDocument("lines", doc); err == nil {
		t.Error("expected an error for a line primitive")
	}
}

func TestGLTFExtractModelName(t *testing.T) {
	doc := skinnedDocument()
	doc.Scenes[0].Name = "stage"

	tests := []struct {
		fallback string
		want     string
	}{
		{"assets/walker.glb", "walker"},
		{"walker", "walker"},
		{"", "stage"},
	}
	for _, tt := range tests {
		if got := gltfExtractModelName(doc, tt.fallback); got != tt.want {
			t.Errorf("gltfExtractModelName(%q): got %q, want %q", tt.fallback, got, tt.want)
		}
	}

	doc.Scenes[0].Name = ""
	if got := gltfExtractModelName(doc, ""); got != "body_mesh" {
		t.Errorf("mesh fallback: got %q", got)
	}
	if got := gltfExtractModelName(nil, ""); got != "model" {
		t.Errorf("default: got %q", got)
	}
}

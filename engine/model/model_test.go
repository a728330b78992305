package model

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestImportedNodeAddChildrenSetsParent(t *testing.T) {
	leaf := NewImportedNode("leaf")
	mid := NewImportedNode("mid", leaf)
	root := NewImportedNode("root", mid)

	if leaf.Parent != mid || mid.Parent != root || root.Parent != nil {
		t.Fatalf("parent links not set: leaf->%v mid->%v root->%v", leaf.Parent, mid.Parent, root.Parent)
	}
	if len(root.Children) != 1 || root.Children[0] != mid {
		t.Errorf("root children: got %v", root.Children)
	}
}

func TestTrackFrameAt(t *testing.T) {
	track := AnimationTrack{
		Channels: []AnimationChannel{
			{},
			{Times: []float32{0, 1, 2, 4}, Transforms: make([]mgl32.Mat4, 4)},
			{Times: []float32{0, 3}, Transforms: make([]mgl32.Mat4, 2)},
		},
	}

	tests := []struct {
		ticks float32
		want  int
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0},
		{1, 1},
		{3.9, 2},
		{4, 3},
		{100, 3},
	}
	for _, tt := range tests {
		if got := track.FrameAt(tt.ticks); got != tt.want {
			t.Errorf("FrameAt(%v): got %d, want %d", tt.ticks, got, tt.want)
		}
	}

	if got := track.FrameCount(); got != 4 {
		t.Errorf("FrameCount: got %d, want 4", got)
	}
}

func TestTrackFrameAtWithoutSamples(t *testing.T) {
	empty := AnimationTrack{Channels: []AnimationChannel{{}, {}}}
	if got := empty.FrameAt(5); got != 0 {
		t.Errorf("empty track: got %d, want 0", got)
	}

	untimed := AnimationTrack{Channels: []AnimationChannel{{Transforms: make([]mgl32.Mat4, 3)}}}
	if got := untimed.FrameAt(1.7); got != 1 {
		t.Errorf("untimed track at 1.7: got %d, want 1", got)
	}
	if got := untimed.FrameAt(9); got != 2 {
		t.Errorf("untimed track at 9: got %d, want 2", got)
	}
}

func TestDiagnosticLog(t *testing.T) {
	var buf bytes.Buffer
	diags := NewDiagnosticLog(log.New(&buf, "", 0))

	diags.Report(Diagnostic{Kind: DiagnosticWeightSum, Source: "body", BoneID: -1, Vertex: 3, Message: "sum 0.5"})
	diags.Report(Diagnostic{Kind: DiagnosticBindPoseConflict, Source: "arm", BoneID: 2, Vertex: -1, Message: "conflict"})
	diags.Report(Diagnostic{Kind: DiagnosticWeightSum, Source: "body", BoneID: -1, Vertex: 4, Message: "sum 1.5"})

	if got := diags.Count(DiagnosticWeightSum); got != 2 {
		t.Errorf("weight-sum count: got %d, want 2", got)
	}
	if got := diags.Count(DiagnosticKeyCountMismatch); got != 0 {
		t.Errorf("key-count count: got %d, want 0", got)
	}

	entries := diags.Entries()
	if len(entries) != 3 || entries[1].Source != "arm" {
		t.Fatalf("entries: got %v", entries)
	}
	entries[0].Source = "mutated"
	if diags.Entries()[0].Source != "body" {
		t.Error("Entries must return a copy")
	}

	if !strings.Contains(buf.String(), "[Diagnostics] weight-sum body: sum 0.5") {
		t.Errorf("log output missing diagnostic line: %q", buf.String())
	}
}

func TestDiagnosticKindString(t *testing.T) {
	if got := DiagnosticKeyCountMismatch.String(); got != "key-count-mismatch" {
		t.Errorf("got %q", got)
	}
	if got := DiagnosticKind(42).String(); got != "diagnostic(42)" {
		t.Errorf("got %q", got)
	}
}

func TestModelDefaultsAndTrackLookup(t *testing.T) {
	m := NewModel(
		WithName("walker"),
		WithTracks([]AnimationTrack{{Name: "idle"}, {Name: "walk"}}),
	)

	if m.Name() != "walker" {
		t.Errorf("name: got %q", m.Name())
	}
	if m.Skeleton() == nil || m.Mesh() == nil || m.Textures() == nil || m.Diagnostics() == nil {
		t.Fatal("NewModel must default skeleton, mesh, textures and diagnostics")
	}
	if got := m.TrackIndex("walk"); got != 1 {
		t.Errorf("TrackIndex(walk): got %d, want 1", got)
	}
	if got := m.TrackIndex("run"); got != -1 {
		t.Errorf("TrackIndex(run): got %d, want -1", got)
	}
	if names := m.TrackNames(); len(names) != 2 || names[0] != "idle" {
		t.Errorf("TrackNames: got %v", names)
	}

	// Release without providers must not panic.
	m.Release()
}

func TestModelVertexAndIndexData(t *testing.T) {
	mesh := &CombinedMesh{
		Vertices: []GPUVertex{
			{Position: [3]float32{1, 2, 3}, BoneWeightOffset: [2]uint32{0, 2}},
			{Position: [3]float32{4, 5, 6}, BoneWeightOffset: [2]uint32{2, 1}},
		},
		Indices: []uint32{0, 1, 1},
	}
	m := NewModel(WithMesh(mesh))

	vd := m.VertexData()
	if len(vd) != 80 {
		t.Fatalf("vertex data length: got %d, want 80", len(vd))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(vd[40:44])); got != 4 {
		t.Errorf("second vertex x: got %v, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(vd[72:76]); got != 2 {
		t.Errorf("second vertex weight offset: got %d, want 2", got)
	}

	id := m.IndexData()
	if len(id) != 12 || m.IndexCount() != 3 {
		t.Fatalf("index data: got %d bytes, count %d", len(id), m.IndexCount())
	}
	if got := binary.LittleEndian.Uint32(id[4:8]); got != 1 {
		t.Errorf("index 1: got %d, want 1", got)
	}
}

func TestGPUVertexSize(t *testing.T) {
	var v GPUVertex
	if v.Size() != 40 {
		t.Errorf("GPUVertex size: got %d, want 40", v.Size())
	}
	var w GPUBoneWeight
	if w.Size() != 8 {
		t.Errorf("GPUBoneWeight size: got %d, want 8", w.Size())
	}
	if GPUVertexAttributes().ArrayStride != 40 {
		t.Error("vertex layout stride must match GPUVertex size")
	}
}

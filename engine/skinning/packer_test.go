package skinning

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

func twoBoneSkeleton() *model.Skeleton {
	return &model.Skeleton{
		Bones: []model.Bone{
			{ID: 0, Name: "root", ParentID: -1, ChildIDs: []int{1}, BindPoseOffset: mgl32.Ident4()},
			{ID: 1, Name: "arm", ParentID: 0, BindPoseOffset: mgl32.Ident4()},
		},
		NameToID: map[string]int{"root": 0, "arm": 1},
	}
}

// triangle has vertex 0 split 0.6/0.4 across both bones and vertices 1, 2 fully on one bone.
func triangle(name string) model.ImportedMesh {
	return model.ImportedMesh{
		Name:      name,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
		Bones: []model.ImportedMeshBone{
			{Name: "root", OffsetMatrix: mgl32.Ident4(), Weights: []model.VertexWeight{{VertexID: 0, Weight: 0.6}, {VertexID: 1, Weight: 1}}},
			{Name: "arm", OffsetMatrix: mgl32.Translate3D(0, -1, 0), Weights: []model.VertexWeight{{VertexID: 0, Weight: 0.4}, {VertexID: 2, Weight: 1}}},
		},
	}
}

func quietPacker(opts ...PackerBuilderOption) Packer {
	logger := log.New(&bytes.Buffer{}, "", 0)
	return NewPacker(append([]PackerBuilderOption{WithLogger(logger)}, opts...)...)
}

func TestPackRoundTrip(t *testing.T) {
	p := quietPacker()
	skel := twoBoneSkeleton()

	frag, err := p.Pack(triangle("a"), skel)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	v0 := frag.Vertices[0]
	if v0.WeightOffset() != 0 || v0.WeightCount() != 2 {
		t.Fatalf("vertex 0: got (%d, %d), want (0, 2)", v0.WeightOffset(), v0.WeightCount())
	}
	want := []model.GPUBoneWeight{{BoneID: 0, Weight: 0.6}, {BoneID: 1, Weight: 0.4}}
	if got := frag.BoneWeights[:2]; !reflect.DeepEqual(got, want) {
		t.Errorf("vertex 0 entries: got %v, want %v", got, want)
	}

	combined := &model.CombinedMesh{}
	AppendFragment(combined, frag)
	second, err := p.Pack(triangle("b"), skel)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	AppendFragment(combined, second)

	v := combined.Vertices[3]
	if v.WeightOffset() != 4 || v.WeightCount() != 2 {
		t.Errorf("second mesh vertex 0: got (%d, %d), want (4, 2)", v.WeightOffset(), v.WeightCount())
	}
	if !reflect.DeepEqual(combined.VertexWeights(3), want) {
		t.Errorf("second mesh vertex 0 entries: got %v, want %v", combined.VertexWeights(3), want)
	}
}

func TestPackSingleEntryPerBoneRebases(t *testing.T) {
	p := quietPacker()
	skel := twoBoneSkeleton()
	mesh := model.ImportedMesh{
		Name:      "pair",
		Positions: [][3]float32{{0, 0, 0}},
		Indices:   []uint32{0, 0, 0},
		Bones: []model.ImportedMeshBone{
			{Name: "root", OffsetMatrix: mgl32.Ident4(), Weights: []model.VertexWeight{{VertexID: 0, Weight: 0.6}}},
			{Name: "arm", OffsetMatrix: mgl32.Ident4(), Weights: []model.VertexWeight{{VertexID: 0, Weight: 0.4}}},
		},
	}

	combined, err := p.Combine([]model.ImportedMesh{mesh, mesh}, skel)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got := combined.Vertices[0].BoneWeightOffset; got != [2]uint32{0, 2} {
		t.Errorf("first vertex: got %v, want [0 2]", got)
	}
	if got := combined.Vertices[1].BoneWeightOffset; got != [2]uint32{2, 2} {
		t.Errorf("second mesh vertex: got %v, want [2 2]", got)
	}
	if got := combined.Indices; !reflect.DeepEqual(got, []uint32{0, 0, 0, 1, 1, 1}) {
		t.Errorf("indices: got %v", got)
	}
}

func TestCombinePartitionsWeightBuffer(t *testing.T) {
	p := quietPacker()
	skel := twoBoneSkeleton()
	meshes := []model.ImportedMesh{triangle("a"), triangle("b"), triangle("c")}
	meshes[1].Bones = meshes[1].Bones[:1]
	meshes[1].Bones[0].Weights = []model.VertexWeight{{VertexID: 2, Weight: 1}}

	combined, err := p.Combine(meshes, skel)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	next := 0
	for i, v := range combined.Vertices {
		if v.WeightOffset() != next {
			t.Fatalf("vertex %d: offset %d, want %d (gap or overlap)", i, v.WeightOffset(), next)
		}
		next += v.WeightCount()
	}
	if next != len(combined.BoneWeights) {
		t.Errorf("ranges cover %d entries, buffer has %d", next, len(combined.BoneWeights))
	}
	if combined.SubMeshCount != 3 || combined.VertexCount() != 9 {
		t.Errorf("got %d sub-meshes, %d vertices", combined.SubMeshCount, combined.VertexCount())
	}
	for i, idx := range combined.Indices {
		if lo := uint32(i / 3 * 3); idx < lo || idx >= lo+3 {
			t.Errorf("index %d = %d escapes its sub-mesh", i, idx)
		}
	}
}

func TestPackDefaultsMissingAttributes(t *testing.T) {
	p := quietPacker()
	mesh := model.ImportedMesh{Name: "bare", Positions: [][3]float32{{1, 2, 3}, {4, 5, 6}}}

	frag, err := p.Pack(mesh, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	for i, v := range frag.Vertices {
		if v.TexCoord != [2]float32{} || v.Normal != [3]float32{} {
			t.Errorf("vertex %d: got uv %v normal %v, want zero", i, v.TexCoord, v.Normal)
		}
		if v.BoneWeightOffset != [2]uint32{0, 0} {
			t.Errorf("vertex %d: got %v, want no weights", i, v.BoneWeightOffset)
		}
	}
	if frag.Vertices[1].Position != [3]float32{4, 5, 6} {
		t.Errorf("got position %v", frag.Vertices[1].Position)
	}
}

func TestPackWeightSumOutOfToleranceIsLoggedNotRejected(t *testing.T) {
	var out bytes.Buffer
	diags := model.NewDiagnosticLog(log.New(&out, "", 0))
	p := quietPacker(WithDiagnostics(diags))
	mesh := triangle("half")
	mesh.Bones[1].Weights = []model.VertexWeight{{VertexID: 2, Weight: 1}}
	mesh.Bones[0].Weights[0].Weight = 0.5

	frag, err := p.Pack(mesh, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if n := diags.Count(model.DiagnosticWeightSum); n != 1 {
		t.Fatalf("got %d weight-sum diagnostics, want 1", n)
	}
	if d := diags.Entries()[0]; d.Vertex != 0 || d.Source != "half" {
		t.Errorf("got diagnostic %+v", d)
	}
	if !strings.Contains(out.String(), "0.5000") {
		t.Errorf("log output %q does not mention the sum", out.String())
	}
	if got := frag.BoneWeights[frag.Vertices[0].WeightOffset()]; got.Weight != 0.5 {
		t.Errorf("vertex 0 packed weight %v, want 0.5", got.Weight)
	}
}

func TestPackWithinToleranceIsQuiet(t *testing.T) {
	diags := model.NewDiagnosticLog(log.New(&bytes.Buffer{}, "", 0))
	p := quietPacker(WithDiagnostics(diags))
	mesh := triangle("close")
	mesh.Bones[0].Weights[0].Weight = 0.595

	if _, err := p.Pack(mesh, twoBoneSkeleton()); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if n := len(diags.Entries()); n != 0 {
		t.Errorf("got %d diagnostics, want 0", n)
	}
}

func TestPackErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.ImportedMesh)
		want   error
	}{
		{"unknown bone", func(m *model.ImportedMesh) { m.Bones[1].Name = "tail" }, ErrUnknownBone},
		{"vertex out of range", func(m *model.ImportedMesh) { m.Bones[0].Weights[1].VertexID = 3 }, ErrVertexOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mesh := triangle(tc.name)
			tc.mutate(&mesh)
			if _, err := quietPacker().Pack(mesh, twoBoneSkeleton()); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCombineBindPoseFirstWriterWins(t *testing.T) {
	diags := model.NewDiagnosticLog(log.New(&bytes.Buffer{}, "", 0))
	p := quietPacker(WithDiagnostics(diags))
	skel := twoBoneSkeleton()

	first := triangle("first")
	second := triangle("second")
	second.Bones[1].OffsetMatrix = mgl32.Translate3D(0, -2, 0)
	third := triangle("third")

	if _, err := p.Combine([]model.ImportedMesh{first, second, third}, skel); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	arm := skel.Bones[1]
	if !arm.BindPoseSet || arm.BindPoseOffset != mgl32.Translate3D(0, -1, 0) {
		t.Errorf("arm bind pose: got %v (set=%v), want first mesh's", arm.BindPoseOffset, arm.BindPoseSet)
	}
	entries := diags.Entries()
	if len(entries) != 1 || entries[0].Kind != model.DiagnosticBindPoseConflict || entries[0].Source != "second" || entries[0].BoneID != 1 {
		t.Errorf("got diagnostics %+v, want one conflict from mesh \"second\" on bone 1", entries)
	}
}

func TestCombineErrorLeavesSkeletonUntouched(t *testing.T) {
	skel := twoBoneSkeleton()
	bad := triangle("bad")
	bad.Bones[0].Name = "missing"

	if _, err := quietPacker().Combine([]model.ImportedMesh{triangle("ok"), bad}, skel); !errors.Is(err, ErrUnknownBone) {
		t.Fatalf("got %v, want ErrUnknownBone", err)
	}
	for _, b := range skel.Bones {
		if b.BindPoseSet {
			t.Errorf("bone %q bind pose set despite failed combine", b.Name)
		}
	}
}

func TestPackAllParallelMatchesSerial(t *testing.T) {
	var meshes []model.ImportedMesh
	for i := 0; i < 24; i++ {
		m := triangle(fmt.Sprintf("mesh%d", i))
		// vary the weight layout so fragments differ in size
		if i%3 == 0 {
			m.Bones = m.Bones[:1]
			m.Bones[0].Weights = []model.VertexWeight{{VertexID: 0, Weight: 1}, {VertexID: 1, Weight: 1}, {VertexID: 2, Weight: 1}}
		}
		meshes = append(meshes, m)
	}

	serial, err := quietPacker().Combine(meshes, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("serial Combine: %v", err)
	}
	parallelPacker := quietPacker(WithWorkers(4))
	if parallelPacker.Workers() != 4 {
		t.Fatalf("got %d workers, want 4", parallelPacker.Workers())
	}
	parallel, err := parallelPacker.Combine(meshes, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("parallel Combine: %v", err)
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel combined mesh differs from serial")
	}
}

func TestPackAllParallelReportsLowestIndexError(t *testing.T) {
	meshes := []model.ImportedMesh{triangle("a"), triangle("b"), triangle("c"), triangle("d")}
	meshes[1].Bones[0].Name = "first-bad"
	meshes[3].Bones[0].Name = "second-bad"

	_, err := quietPacker(WithWorkers(3)).PackAll(meshes, twoBoneSkeleton())
	if !errors.Is(err, ErrUnknownBone) || !strings.Contains(err.Error(), "first-bad") {
		t.Errorf("got %v, want the error from mesh 1", err)
	}
}

func TestNewPackerDefaults(t *testing.T) {
	p := quietPacker()
	if p.Tolerance() != DefaultWeightTolerance {
		t.Errorf("got tolerance %v, want %v", p.Tolerance(), DefaultWeightTolerance)
	}
	if p.Workers() != 1 {
		t.Errorf("got %d workers, want 1", p.Workers())
	}
	if p.Diagnostics() == nil {
		t.Error("expected a default diagnostic log")
	}
}

// point is a one-vertex mesh weighted to root with the given weight.
func point(name string, weight float32) model.ImportedMesh {
	return model.ImportedMesh{
		Name:      name,
		Positions: [][3]float32{{0, 0, 0}},
		Indices:   []uint32{0, 0, 0},
		Bones:     []model.ImportedMeshBone{{Name: "root", OffsetMatrix: mgl32.Ident4(), Weights: []model.VertexWeight{{VertexID: 0, Weight: weight}}}},
	}
}

func TestPackAllReusesPool(t *testing.T) {
	p := quietPacker(WithWorkers(4))
	meshes := make([]model.ImportedMesh, 8)
	for i := range meshes {
		meshes[i] = point(fmt.Sprintf("p%d", i), 1)
	}

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		if _, err := p.PackAll(meshes, twoBoneSkeleton()); err != nil {
			t.Fatalf("PackAll %d: %v", i, err)
		}
	}
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Errorf("goroutines grew from %d to %d across 50 calls", before, after)
	}
}

func TestWithPoolTakesWorkerCount(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(3, poolQueueSize, poolIdleTimeout)
	p := quietPacker(WithPool(pool), WithWorkers(8))
	if p.Workers() != 3 {
		t.Errorf("got %d workers, want the pool's 3", p.Workers())
	}

	meshes := []model.ImportedMesh{triangle("a"), triangle("b"), triangle("c")}
	frags, err := p.PackAll(meshes, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("PackAll: %v", err)
	}
	for i, frag := range frags {
		if frag.Name != meshes[i].Name {
			t.Errorf("fragment %d: got %q, want %q", i, frag.Name, meshes[i].Name)
		}
	}
}

func TestPackReportsUnweightedVertex(t *testing.T) {
	p := quietPacker()
	mesh := model.ImportedMesh{
		Name:      "half",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
		Indices:   []uint32{0, 1, 0},
		Bones:     []model.ImportedMeshBone{{Name: "root", OffsetMatrix: mgl32.Ident4(), Weights: []model.VertexWeight{{VertexID: 0, Weight: 1}}}},
	}

	frag, err := p.Pack(mesh, twoBoneSkeleton())
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if v := frag.Vertices[1]; v.WeightOffset() != 1 || v.WeightCount() != 0 {
		t.Errorf("vertex 1: got (%d, %d), want (1, 0)", v.WeightOffset(), v.WeightCount())
	}
	entries := p.Diagnostics().Entries()
	if len(entries) != 1 || entries[0].Kind != model.DiagnosticWeightSum || entries[0].Vertex != 1 {
		t.Fatalf("got diagnostics %+v, want one weight-sum finding for vertex 1", entries)
	}

	// a mesh without bones is unskinned and never checked
	unskinned := mesh
	unskinned.Bones = nil
	if _, err := p.Pack(unskinned, twoBoneSkeleton()); err != nil {
		t.Fatalf("Pack unskinned: %v", err)
	}
	if n := p.Diagnostics().Count(model.DiagnosticWeightSum); n != 1 {
		t.Errorf("unskinned mesh added diagnostics: got %d, want 1", n)
	}
}

func TestParallelDiagnosticsFollowMeshOrder(t *testing.T) {
	meshes := make([]model.ImportedMesh, 16)
	want := make([]string, len(meshes))
	for i := range meshes {
		meshes[i] = point(fmt.Sprintf("p%02d", i), 0.5)
		want[i] = meshes[i].Name
	}

	pool := worker.NewDynamicWorkerPool(4, poolQueueSize, poolIdleTimeout)
	for run := 0; run < 10; run++ {
		diags := model.NewDiagnosticLog(log.New(&bytes.Buffer{}, "", 0))
		p := quietPacker(WithPool(pool), WithDiagnostics(diags))
		if _, err := p.Combine(meshes, twoBoneSkeleton()); err != nil {
			t.Fatalf("Combine: %v", err)
		}

		var got []string
		for _, d := range diags.Entries() {
			if d.Kind == model.DiagnosticWeightSum {
				got = append(got, d.Source)
			}
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got order %v, want %v", run, got, want)
		}
	}
}

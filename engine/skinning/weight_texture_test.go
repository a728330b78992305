package skinning

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

func TestEncodeWeightsLayout(t *testing.T) {
	mesh := &model.CombinedMesh{BoneWeights: []model.GPUBoneWeight{
		{BoneID: 0, Weight: 0.6},
		{BoneID: 1, Weight: 0.4},
		{BoneID: 3, Weight: 1},
	}}

	tex := EncodeWeights(mesh, 4)
	if tex.Width != 4 || tex.Height != 1 {
		t.Fatalf("got %dx%d, want 4x1", tex.Width, tex.Height)
	}
	if got, want := tex.Texel(0), [4]float32{0, 0.6, 1, 0.4}; got != want {
		t.Errorf("texel 0: got %v, want %v", got, want)
	}
	if got, want := tex.Texel(1), [4]float32{3, 1, 0, 0}; got != want {
		t.Errorf("texel 1: got %v, want %v", got, want)
	}
	for e, want := range mesh.BoneWeights {
		if got := WeightEntry(tex, e); got != want {
			t.Errorf("entry %d: got %v, want %v", e, got, want)
		}
	}
}

func TestEncodeWeightsHeight(t *testing.T) {
	cases := []struct {
		entries int
		width   int
		want    uint32
	}{
		{0, 0, 1},
		{1, 0, 1},
		{2047, 1024, 1},
		{2048, 1024, 2},
		{2049, 1024, 2},
		{17, 4, 3},
	}

	for _, tc := range cases {
		mesh := &model.CombinedMesh{BoneWeights: make([]model.GPUBoneWeight, tc.entries)}
		tex := EncodeWeights(mesh, tc.width)
		if tex.Height != tc.want {
			t.Errorf("%d entries at width %d: got height %d, want %d", tc.entries, tc.width, tex.Height, tc.want)
		}
		if capacity := int(tex.Width*tex.Height) * entriesPerTexel; capacity < tc.entries {
			t.Errorf("%d entries do not fit in %dx%d", tc.entries, tex.Width, tex.Height)
		}
	}
}

func TestEncodeWeightsNonPositiveWidth(t *testing.T) {
	mesh := &model.CombinedMesh{BoneWeights: []model.GPUBoneWeight{{BoneID: 0, Weight: 1}}}
	for _, width := range []int{0, -1} {
		if tex := EncodeWeights(mesh, width); tex.Width != 1024 || tex.Height != 1 {
			t.Errorf("width %d: got %dx%d, want 1024x1", width, tex.Width, tex.Height)
		}
	}
}

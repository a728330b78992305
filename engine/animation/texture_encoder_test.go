package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

func TestEncodeBindPoseSize(t *testing.T) {
	cases := []struct {
		name       string
		bones      int
		width      int
		wantWidth  uint32
		wantHeight uint32
	}{
		{"default width", 3, 0, 1024, 2},
		{"exact fit", 4, 16, 16, 2},
		{"wraps", 5, 8, 8, 4},
		{"no bones", 0, 8, 8, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			skel := &model.Skeleton{Bones: make([]model.Bone, tc.bones)}
			tex := EncodeBindPose(skel, tc.width)
			if tex.Width != tc.wantWidth || tex.Height != tc.wantHeight {
				t.Errorf("got %dx%d, want %dx%d", tex.Width, tex.Height, tc.wantWidth, tc.wantHeight)
			}
			if err := tex.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestEncodeBindPoseContents(t *testing.T) {
	skel := mustSkeleton(chainScene("a", "b", "c"))
	offset := translation(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	skel.Bones[1].BindPoseOffset = offset
	skel.Bones[1].BindPoseSet = true

	tex := EncodeBindPose(skel, 8)
	if got := ReadMatrix(tex, 0); got != mgl32.Ident4() {
		t.Errorf("bone 0: got %v, want identity", got)
	}
	if got := ReadMatrix(tex, 4); got != offset {
		t.Errorf("bone 1: got %v, want %v", got, offset)
	}
	if got := ReadMatrix(tex, 8); got != mgl32.Ident4() {
		t.Errorf("bone 2 (wrapped to second row): got %v, want identity", got)
	}

	// texel k of a matrix holds row k
	if got, want := tex.Texel(4), [4]float32{2, 0, 0, 1}; got != want {
		t.Errorf("bone 1 row 0: got %v, want %v", got, want)
	}
}

func TestEncodeTrackLayout(t *testing.T) {
	skel := mustSkeleton(chainScene("A", "B"))
	track := &model.AnimationTrack{Name: "sway", Channels: []model.AnimationChannel{
		channelOf(translation(1, 0, 0), translation(2, 0, 0), translation(3, 0, 0)),
		channelOf(translation(0, 1, 0)),
	}}

	tex := EncodeTrack(track, skel)
	if tex.Width != 8 || tex.Height != 3 {
		t.Fatalf("got %dx%d, want 8x3", tex.Width, tex.Height)
	}
	if err := tex.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	for f := 0; f < 3; f++ {
		for b := 0; b < 2; b++ {
			got := ReadMatrix(tex, f*int(tex.Width)+b*4)
			if want := WorldTransform(track, skel, b, f); got != want {
				t.Errorf("frame %d bone %d: got %v, want %v", f, b, got, want)
			}
		}
	}
}

func TestEncodeTrackWithoutSamples(t *testing.T) {
	skel := mustSkeleton(chainScene("A", "B", "C"))
	track := &model.AnimationTrack{Name: "empty", Channels: make([]model.AnimationChannel, 3)}

	tex := EncodeTrack(track, skel)
	if tex.Width != 12 || tex.Height != 1 {
		t.Fatalf("got %dx%d, want 12x1", tex.Width, tex.Height)
	}
	for b := 0; b < 3; b++ {
		if got := ReadMatrix(tex, b*4); got != mgl32.Ident4() {
			t.Errorf("bone %d: got %v, want identity", b, got)
		}
	}
}

func TestEncodeTracksOrder(t *testing.T) {
	skel := mustSkeleton(chainScene("A"))
	tracks := []model.AnimationTrack{
		{Name: "one", Channels: []model.AnimationChannel{channelOf(translation(1, 0, 0))}},
		{Name: "two", Channels: []model.AnimationChannel{channelOf(translation(1, 0, 0), translation(2, 0, 0))}},
	}

	texs := EncodeTracks(tracks, skel)
	if len(texs) != 2 {
		t.Fatalf("got %d textures, want 2", len(texs))
	}
	if texs[0].Height != 1 || texs[1].Height != 2 {
		t.Errorf("got heights %d, %d, want 1, 2", texs[0].Height, texs[1].Height)
	}
	if texs[1].Label != "Track two Texture" {
		t.Errorf("got label %q", texs[1].Label)
	}
}

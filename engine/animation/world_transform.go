package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// WorldTransform composes a bone's world transform at a frame by walking its ancestor chain to the root.
//
// Each ancestor contributes channel[frame] multiplied on the left of the running result. A frame past the
// end of a channel holds that channel's last sample. Ancestors with an empty channel, or whose sample is the
// all-zero matrix, contribute nothing and the walk continues with their parent.
//
// Parameters:
//   - track: the track to sample
//   - skel: the skeleton providing parent links
//   - boneID: the bone to resolve
//   - frame: the frame index, negative values read frame 0
//
// Returns:
//   - mgl32.Mat4: the world transform, identity if no ancestor contributes
func WorldTransform(track *model.AnimationTrack, skel *model.Skeleton, boneID, frame int) mgl32.Mat4 {
	world := mgl32.Ident4()
	frame = max(frame, 0)

	// Colliding node names can link bones into a loop; no valid chain is longer than the bone count.
	hops := skel.BoneCount()
	for id := boneID; id >= 0 && id < len(track.Channels) && hops > 0; id, hops = skel.Bones[id].ParentID, hops-1 {
		ch := &track.Channels[id]
		n := ch.FrameCount()
		if n == 0 {
			continue
		}
		m := ch.Transforms[min(frame, n-1)]
		if m == (mgl32.Mat4{}) {
			continue
		}
		world = m.Mul4(world)
	}
	return world
}

// BakeTrack computes the world transform of every bone at every frame of the track.
// The frame count is the longest channel's sample count. Each (frame, bone) pair is resolved
// independently with WorldTransform.
//
// Parameters:
//   - track: the track to bake
//   - skel: the skeleton providing parent links
//
// Returns:
//   - [][]mgl32.Mat4: the grid indexed [frame][bone]
func BakeTrack(track *model.AnimationTrack, skel *model.Skeleton) [][]mgl32.Mat4 {
	frames := track.FrameCount()
	grid := make([][]mgl32.Mat4, frames)
	for f := range grid {
		row := make([]mgl32.Mat4, skel.BoneCount())
		for b := range row {
			row[b] = WorldTransform(track, skel, b, f)
		}
		grid[f] = row
	}
	return grid
}

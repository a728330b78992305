package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// AppendFragment merges a fragment into dst. The fragment's weight offsets are rebased by the entries
// already in dst and its indices by the vertices already in dst, so every vertex keeps addressing
// exactly its own entries. frag is not modified.
//
// Parameters:
//   - dst: the combined mesh to grow
//   - frag: the fragment to append
func AppendFragment(dst *model.CombinedMesh, frag *MeshFragment) {
	weightBase := uint32(len(dst.BoneWeights))
	vertexBase := uint32(len(dst.Vertices))

	for _, v := range frag.Vertices {
		v.BoneWeightOffset[0] += weightBase
		dst.Vertices = append(dst.Vertices, v)
	}
	for _, idx := range frag.Indices {
		dst.Indices = append(dst.Indices, idx+vertexBase)
	}
	dst.BoneWeights = append(dst.BoneWeights, frag.BoneWeights...)
	dst.SubMeshCount++
}

// ApplyBindPoses records a fragment's bind-pose offsets on the skeleton.
// The first offset seen for a bone is kept; a later, different offset is reported as a conflict and ignored.
//
// Parameters:
//   - skel: the skeleton to update
//   - frag: the fragment carrying bind-pose observations
//   - diags: receives conflicts, may be nil
//
// Returns:
//   - int: the number of conflicts found
func ApplyBindPoses(skel *model.Skeleton, frag *MeshFragment, diags model.DiagnosticLog) int {
	conflicts := 0
	for _, obs := range frag.BindPoses {
		bone := &skel.Bones[obs.BoneID]
		if !bone.BindPoseSet {
			bone.BindPoseOffset = obs.Offset
			bone.BindPoseSet = true
			continue
		}
		if bone.BindPoseOffset != obs.Offset {
			conflicts++
			if diags != nil {
				diags.Report(model.Diagnostic{
					Kind:    model.DiagnosticBindPoseConflict,
					Source:  frag.Name,
					BoneID:  obs.BoneID,
					Vertex:  -1,
					Message: fmt.Sprintf("bone %q bind pose differs from the first assignment, keeping the first", bone.Name),
				})
			}
		}
	}
	return conflicts
}

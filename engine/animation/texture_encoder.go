package animation

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// texelsPerMatrix is the number of RGBA texels a 4x4 matrix occupies, one per row.
const texelsPerMatrix = 4

// EncodeBindPose packs one bind-pose offset matrix per bone into a fixed-width RGBA32F texture.
// Bone i occupies texels [4i, 4i+4), texel k holding row k. Bones without an assigned bind pose
// encode identity. Height is ceil(bones*4 / width) + 1.
//
// Parameters:
//   - skel: the skeleton to encode
//   - width: the texture width in texels, zero or negative selects common.DefaultTextureWidth
//
// Returns:
//   - common.TextureStagingData: the bind-pose texture
func EncodeBindPose(skel *model.Skeleton, width int) common.TextureStagingData {
	width = common.TextureWidth(width)
	texels := skel.BoneCount() * texelsPerMatrix
	height := common.CeilDiv(texels, width) + 1

	tex := common.NewTextureStagingData("Bind Pose Texture", uint32(width), uint32(height))
	for i := range skel.Bones {
		m := mgl32.Ident4()
		if skel.Bones[i].BindPoseSet {
			m = skel.Bones[i].BindPoseOffset
		}
		writeMatrix(tex, i*texelsPerMatrix, m)
	}
	return tex
}

// EncodeTrack bakes a track and packs it into an RGBA32F texture of width bones*4 and height frames.
// Row f holds frame f; bone b occupies texels [4b, 4b+4) of that row. A track without samples encodes
// a single identity row so the texture is never empty.
//
// Parameters:
//   - track: the track to encode
//   - skel: the skeleton the track animates
//
// Returns:
//   - common.TextureStagingData: the animation texture
func EncodeTrack(track *model.AnimationTrack, skel *model.Skeleton) common.TextureStagingData {
	bones := max(skel.BoneCount(), 1)
	grid := BakeTrack(track, skel)
	if len(grid) == 0 {
		row := make([]mgl32.Mat4, bones)
		for b := range row {
			row[b] = mgl32.Ident4()
		}
		grid = [][]mgl32.Mat4{row}
	}

	width := bones * texelsPerMatrix
	tex := common.NewTextureStagingData(fmt.Sprintf("Track %s Texture", track.Name), uint32(width), uint32(len(grid)))
	for f, row := range grid {
		for b, m := range row {
			writeMatrix(tex, f*width+b*texelsPerMatrix, m)
		}
	}
	return tex
}

// EncodeTracks encodes every track in order.
//
// Parameters:
//   - tracks: the tracks to encode
//   - skel: the skeleton the tracks animate
//
// Returns:
//   - []common.TextureStagingData: one texture per track, index-aligned with tracks
func EncodeTracks(tracks []model.AnimationTrack, skel *model.Skeleton) []common.TextureStagingData {
	out := make([]common.TextureStagingData, len(tracks))
	for i := range tracks {
		out[i] = EncodeTrack(&tracks[i], skel)
	}
	return out
}

// ReadMatrix reassembles the matrix stored at texel offset by writeMatrix.
//
// Parameters:
//   - tex: the texture to read from
//   - texel: the linear index of the matrix's first texel
//
// Returns:
//   - mgl32.Mat4: the stored matrix
func ReadMatrix(tex common.TextureStagingData, texel int) mgl32.Mat4 {
	var rows [4]mgl32.Vec4
	for k := range rows {
		rows[k] = mgl32.Vec4(tex.Texel(texel + k))
	}
	return mgl32.Mat4FromRows(rows[0], rows[1], rows[2], rows[3])
}

func writeMatrix(tex common.TextureStagingData, texel int, m mgl32.Mat4) {
	for k, row := range common.MatrixRowTexels(m) {
		tex.SetTexel(texel+k, row)
	}
}

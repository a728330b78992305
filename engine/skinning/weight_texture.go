package skinning

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// entriesPerTexel is the number of (bone id, weight) entries one RGBA texel holds.
const entriesPerTexel = 2

// EncodeWeights packs the combined bone-weight entries into a fixed-width RGBA32F texture,
// two entries per texel as (id0, w0, id1, w1). Entry e lives in texel e/2 at component pair e%2.
// Height is entries/2/width + 1.
//
// Parameters:
//   - mesh: the combined mesh
//   - width: the texture width in texels, zero or negative selects common.DefaultTextureWidth
//
// Returns:
//   - common.TextureStagingData: the bone-weight texture
func EncodeWeights(mesh *model.CombinedMesh, width int) common.TextureStagingData {
	width = common.TextureWidth(width)
	height := len(mesh.BoneWeights)/entriesPerTexel/width + 1

	tex := common.NewTextureStagingData("Bone Weight Texture", uint32(width), uint32(height))
	for e, w := range mesh.BoneWeights {
		base := e * 2
		tex.Texels[base] = w.BoneID
		tex.Texels[base+1] = w.Weight
	}
	return tex
}

// WeightEntry reads entry e back from a texture built by EncodeWeights.
//
// Parameters:
//   - tex: the bone-weight texture
//   - e: the entry index
//
// Returns:
//   - model.GPUBoneWeight: the stored entry
func WeightEntry(tex common.TextureStagingData, e int) model.GPUBoneWeight {
	texel := tex.Texel(e / entriesPerTexel)
	pair := (e % entriesPerTexel) * 2
	return model.GPUBoneWeight{BoneID: texel[pair], Weight: texel[pair+1]}
}

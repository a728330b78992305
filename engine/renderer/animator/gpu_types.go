package animator

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// Texture units of the animation bind group. The consuming shader declares the same bindings;
// ShaderSource generates them.
const (
	// WeightTextureUnit holds the bone-weight entry texture.
	WeightTextureUnit = 0

	// BindPoseTextureUnit holds the per-bone bind-pose offset texture.
	BindPoseTextureUnit = 1

	// FirstTrackTextureUnit holds the first track's world-transform texture. Track i is bound at
	// FirstTrackTextureUnit + i.
	FirstTrackTextureUnit = 2
)

// PlaybackBinding is the binding of the per-instance playback storage buffer within the playback group.
const PlaybackBinding = 0

// TrackTextureUnit returns the texture unit of track i.
//
// Parameters:
//   - track: the track index in model order
//
// Returns:
//   - int: the texture unit
func TrackTextureUnit(track int) int {
	return FirstTrackTextureUnit + track
}

// TextureUnitCount returns how many texture units a model with trackCount tracks occupies.
//
// Parameters:
//   - trackCount: the number of tracks
//
// Returns:
//   - int: the unit count
func TextureUnitCount(trackCount int) int {
	return FirstTrackTextureUnit + trackCount
}

// TextureLayoutDescriptor builds the layout of the animation bind group: one unfilterable float
// texture per unit, visible to the vertex stage, in unit order.
//
// Parameters:
//   - label: the layout label
//   - trackCount: the number of tracks
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func TextureLayoutDescriptor(label string, trackCount int) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, TextureUnitCount(trackCount))
	for unit := range entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(unit),
			Visibility: wgpu.ShaderStageVertex,
		}
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.Multisampled = false
		entries[unit] = entry
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label + " Texture Layout",
		Entries: entries,
	}
}

// PlaybackLayoutDescriptor builds the layout of the playback bind group: a read-only storage buffer
// of GPUPlaybackData indexed by instance.
//
// Parameters:
//   - label: the layout label
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func PlaybackLayoutDescriptor(label string) wgpu.BindGroupLayoutDescriptor {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    PlaybackBinding,
		Visibility: wgpu.ShaderStageVertex,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	entry.Buffer.MinBindingSize = uint64((&GPUPlaybackData{}).Size())
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label + " Playback Layout",
		Entries: []wgpu.BindGroupLayoutEntry{entry},
	}
}

// skinningHelpersSource holds the WGSL helpers for reading the animation textures.
//
//go:embed assets/skinning.wgsl
var skinningHelpersSource string

// ShaderSource generates the WGSL declarations a vertex shader needs to consume a model's textures:
// the PlaybackData struct, the texture bindings in unit order, the playback buffer, the fetch helpers
// and a track_matrix(track, bone, frame) dispatcher over the track textures.
//
// Parameters:
//   - textureGroup: the bind group index of the animation textures
//   - playbackGroup: the bind group index of the playback buffer
//   - trackCount: the number of tracks
//
// Returns:
//   - string: the WGSL source
func ShaderSource(textureGroup, playbackGroup uint32, trackCount int) string {
	var b strings.Builder
	b.WriteString(skinningHelpersSource)
	b.WriteString("\n")
	fmt.Fprintf(&b, "@group(%d) @binding(%d) var bone_weights: texture_2d<f32>;\n", textureGroup, WeightTextureUnit)
	fmt.Fprintf(&b, "@group(%d) @binding(%d) var bind_pose: texture_2d<f32>;\n", textureGroup, BindPoseTextureUnit)
	for i := range trackCount {
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var track_%d: texture_2d<f32>;\n", textureGroup, TrackTextureUnit(i), i)
	}
	fmt.Fprintf(&b, "@group(%d) @binding(%d) var<storage, read> playback: array<PlaybackData>;\n\n", playbackGroup, PlaybackBinding)

	b.WriteString("fn track_matrix(track: u32, bone: u32, frame: u32) -> mat4x4<f32> {\n")
	b.WriteString("    switch track {\n")
	for i := range trackCount {
		fmt.Fprintf(&b, "        case %du: {\n            return fetch_track_matrix(track_%d, bone, frame);\n        }\n", i, i)
	}
	b.WriteString("        default: {\n")
	b.WriteString("            return mat4x4<f32>(vec4<f32>(1.0, 0.0, 0.0, 0.0), vec4<f32>(0.0, 1.0, 0.0, 0.0), vec4<f32>(0.0, 0.0, 1.0, 0.0), vec4<f32>(0.0, 0.0, 0.0, 1.0));\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

// GPUPlaybackData is the GPU-aligned per-instance playback state read by the skinning vertex shader.
// Matches the WGSL PlaybackData struct. Size: 16 bytes (std430 aligned).
type GPUPlaybackData struct {
	Track      uint32 // offset 0: track index, selects texture unit FirstTrackTextureUnit + Track
	Frame      uint32 // offset 4: row of the track texture
	FrameCount uint32 // offset 8: rows in the track texture
	BoneCount  uint32 // offset 12: bones per row
}

// Size returns the size of the GPUPlaybackData struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPlaybackData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPlaybackData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUPlaybackData) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.Track)
	binary.LittleEndian.PutUint32(buf[4:8], g.Frame)
	binary.LittleEndian.PutUint32(buf[8:12], g.FrameCount)
	binary.LittleEndian.PutUint32(buf[12:16], g.BoneCount)
	return buf
}

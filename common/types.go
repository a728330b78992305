// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TexelComponents is the number of float32 components stored per RGBA32F texel.
const TexelComponents = 4

// DefaultTextureWidth is the fixed width, in texels, of the bone-weight and bind-pose textures.
const DefaultTextureWidth = 1024

// TextureWidth returns width, or DefaultTextureWidth when width is not positive.
func TextureWidth(width int) int {
	if width <= 0 {
		return DefaultTextureWidth
	}
	return width
}

// TextureStagingData holds RGBA32F texel data for a texture binding pending GPU upload.
// Encoders produce it on the CPU; the Renderer turns it into a GPU texture. Once built it is
// never patched in place, only replaced by a full rebuild.
type TextureStagingData struct {
	// Label is a debug label carried through to the GPU texture.
	Label string
	// Texels is the flat RGBA float data, 4 components per texel, row-major.
	Texels []float32
	// Width is the width of the texture in texels.
	Width uint32
	// Height is the height of the texture in texels.
	Height uint32
}

// NewTextureStagingData allocates a zero-filled RGBA32F staging texture of the given size.
//
// Parameters:
//   - label: debug label for the texture
//   - width: width in texels
//   - height: height in texels
//
// Returns:
//   - TextureStagingData: the zero-filled staging data
func NewTextureStagingData(label string, width, height uint32) TextureStagingData {
	return TextureStagingData{
		Label:  label,
		Texels: make([]float32, int(width)*int(height)*TexelComponents),
		Width:  width,
		Height: height,
	}
}

// Format returns the GPU texture format of the staging data.
//
// Returns:
//   - wgpu.TextureFormat: always RGBA32Float
func (t TextureStagingData) Format() wgpu.TextureFormat {
	return wgpu.TextureFormatRGBA32Float
}

// BytesPerRow returns the byte stride of a single texel row.
//
// Returns:
//   - uint32: width * 16 bytes
func (t TextureStagingData) BytesPerRow() uint32 {
	return t.Width * TexelComponents * 4
}

// Texel returns the RGBA value stored at texel index i (row-major).
//
// Parameters:
//   - i: the linear texel index
//
// Returns:
//   - [4]float32: the RGBA components
func (t TextureStagingData) Texel(i int) [4]float32 {
	base := i * TexelComponents
	return [4]float32{t.Texels[base], t.Texels[base+1], t.Texels[base+2], t.Texels[base+3]}
}

// SetTexel writes an RGBA value at texel index i (row-major).
//
// Parameters:
//   - i: the linear texel index
//   - v: the RGBA components
func (t TextureStagingData) SetTexel(i int, v [4]float32) {
	copy(t.Texels[i*TexelComponents:(i+1)*TexelComponents], v[:])
}

// Bytes returns a byte view of the texel data for GPU upload.
// The returned slice shares memory with Texels.
//
// Returns:
//   - []byte: the raw texel bytes
func (t TextureStagingData) Bytes() []byte {
	return SliceToBytes(t.Texels)
}

// Validate checks that the texel slice matches the declared dimensions.
//
// Returns:
//   - error: an error if the texel count does not match width*height
func (t TextureStagingData) Validate() error {
	want := int(t.Width) * int(t.Height) * TexelComponents
	if len(t.Texels) != want {
		return fmt.Errorf("texture %q: have %d floats, want %d for %dx%d", t.Label, len(t.Texels), want, t.Width, t.Height)
	}
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture %q: zero dimension %dx%d", t.Label, t.Width, t.Height)
	}
	return nil
}

package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertex is the GPU-aligned representation of a single skinned mesh vertex.
// Size: 40 bytes, tightly packed.
type GPUVertex struct {
	Position         [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal           [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord         [2]float32 // offset 24: UV texture coordinate (8 bytes)
	BoneWeightOffset [2]uint32  // offset 32: (offset, count) into the bone-weight entry buffer (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// WeightOffset returns the first bone-weight entry index of the vertex.
//
// Returns:
//   - int: the entry offset
func (g GPUVertex) WeightOffset() int {
	return int(g.BoneWeightOffset[0])
}

// WeightCount returns the number of bone-weight entries of the vertex.
//
// Returns:
//   - int: the entry count
func (g GPUVertex) WeightCount() int {
	return int(g.BoneWeightOffset[1])
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 40-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 40)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[32:36], g.BoneWeightOffset[0])
	binary.LittleEndian.PutUint32(buf[36:40], g.BoneWeightOffset[1])
	return buf
}

// GPUVertexAttributes returns the vertex buffer attribute layout matching GPUVertex.
// Locations: 0 position, 1 normal, 2 uv, 3 bone-weight offset/count.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for pipeline creation
func GPUVertexAttributes() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 40,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatUint32x2, Offset: 32, ShaderLocation: 3},
		},
	}
}

// GPUBoneWeight is one flattened (bone id, weight) entry. Two entries fill one RGBA32F texel.
// The bone id is stored as float so the pair can live in a float texture.
type GPUBoneWeight struct {
	BoneID float32 // offset 0: bone index as float (4 bytes)
	Weight float32 // offset 4: influence (4 bytes)
}

// Size returns the size of the GPUBoneWeight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUBoneWeight) Size() int {
	return int(unsafe.Sizeof(*g))
}

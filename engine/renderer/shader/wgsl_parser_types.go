package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo pairs a vertex format with its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// sampledTextureInfo holds the view dimension of a sampled texture type.
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// wgslTypeLayout is the host-shareable size and alignment of a WGSL type, used for MinBindingSize.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one struct member.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is one struct declaration.
type parsedStruct struct {
	name   string
	fields []parsedField
}

package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// CeilDiv returns a / b rounded up. b must be positive.
//
// Parameters:
//   - a: the dividend (non-negative)
//   - b: the divisor (positive)
//
// Returns:
//   - int: the rounded-up quotient
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// MatrixRowTexels splits a 4x4 matrix into four RGBA texels, texel k holding row k.
// mgl32 matrices are column-major in memory, so this is a transpose of the raw layout.
//
// Parameters:
//   - m: the matrix to split
//
// Returns:
//   - [4][4]float32: the four row texels
func MatrixRowTexels(m mgl32.Mat4) [4][4]float32 {
	var out [4][4]float32
	for row := 0; row < 4; row++ {
		out[row] = [4]float32(m.Row(row))
	}
	return out
}

package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 7, 9); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ v, lo, hi, want int }{
		{-3, 0, 4, 0},
		{2, 0, 4, 2},
		{10, 0, 4, 4},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestTextureWidth(t *testing.T) {
	for width, want := range map[int]int{-5: DefaultTextureWidth, 0: DefaultTextureWidth, 8: 8} {
		if got := TextureWidth(width); got != want {
			t.Errorf("TextureWidth(%d) = %d, want %d", width, got, want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{0, 1024, 0},
		{1, 1024, 1},
		{1024, 1024, 1},
		{1025, 1024, 2},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatrixRowTexels(t *testing.T) {
	m := mgl32.Translate3D(5, 6, 7)
	rows := MatrixRowTexels(m)
	want := [4][4]float32{
		{1, 0, 0, 5},
		{0, 1, 0, 6},
		{0, 0, 1, 7},
		{0, 0, 0, 1},
	}
	if rows != want {
		t.Errorf("got %v, want %v", rows, want)
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]float32(nil)) != nil {
		t.Error("empty slice must give nil")
	}
	b := SliceToBytes([]float32{1.5, -2})
	if len(b) != 8 {
		t.Fatalf("got %d bytes, want 8", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4:])); got != -2 {
		t.Errorf("second float: got %v", got)
	}
}

func TestTextureStagingData(t *testing.T) {
	tex := NewTextureStagingData("bind pose", 4, 2)
	if err := tex.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if tex.BytesPerRow() != 64 || len(tex.Bytes()) != 128 {
		t.Errorf("got %d bytes per row, %d bytes", tex.BytesPerRow(), len(tex.Bytes()))
	}

	tex.SetTexel(5, [4]float32{1, 2, 3, 4})
	if got := tex.Texel(5); got != [4]float32{1, 2, 3, 4} {
		t.Errorf("texel 5: got %v", got)
	}
	if got := tex.Texel(4); got != [4]float32{} {
		t.Errorf("texel 4 must stay zero, got %v", got)
	}

	short := TextureStagingData{Label: "short", Texels: make([]float32, 4), Width: 2, Height: 1}
	if short.Validate() == nil {
		t.Error("texel count mismatch must fail validation")
	}
	empty := TextureStagingData{Label: "empty"}
	if empty.Validate() == nil {
		t.Error("zero dimension must fail validation")
	}
}

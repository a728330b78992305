package bind_group_provider

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderDefaults(t *testing.T) {
	p := NewBindGroupProvider("rig Camera")
	if p.Label() != "rig Camera" || p.Kind() != ProviderKindBuffers {
		t.Errorf("got label %q kind %v", p.Label(), p.Kind())
	}
	if p.Ready() || p.BindGroup() != nil || p.BindGroupLayout() != nil {
		t.Error("a new provider must hold no bind group")
	}
	if len(p.TextureBindings()) != 0 || p.IndexCount() != 0 {
		t.Error("a new provider must hold no resources")
	}
}

func TestSetTextureRecordsUnits(t *testing.T) {
	p := NewBindGroupProvider("rig Animation", WithKind(ProviderKindTextures))

	extents := map[int]wgpu.Extent3D{
		3: {Width: 8, Height: 24, DepthOrArrayLayers: 1},
		0: {Width: 1024, Height: 2, DepthOrArrayLayers: 1},
		1: {Width: 1024, Height: 1, DepthOrArrayLayers: 1},
		2: {Width: 8, Height: 30, DepthOrArrayLayers: 1},
	}
	for binding, extent := range extents {
		if err := p.SetTexture(binding, nil, nil, extent); err != nil {
			t.Fatalf("SetTexture(%d): %v", binding, err)
		}
	}

	if got, want := p.TextureBindings(), []int{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("bindings: got %v, want %v", got, want)
	}
	for binding, want := range extents {
		if got := p.TextureExtent(binding); got != want {
			t.Errorf("extent %d: got %+v, want %+v", binding, got, want)
		}
	}
	if got := p.TextureExtent(9); got != (wgpu.Extent3D{}) {
		t.Errorf("unset extent: got %+v", got)
	}

	replaced := wgpu.Extent3D{Width: 8, Height: 12, DepthOrArrayLayers: 1}
	if err := p.SetTexture(3, nil, nil, replaced); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := p.TextureExtent(3); got != replaced || len(p.TextureBindings()) != 4 {
		t.Errorf("replace: got %+v with %d bindings", got, len(p.TextureBindings()))
	}

	p.Release()
	if len(p.TextureBindings()) != 0 {
		t.Error("Release left textures")
	}
	p.Release()
}

func TestKindGuards(t *testing.T) {
	buffers := NewBindGroupProvider("rig Playback")
	if err := buffers.SetTexture(0, nil, nil, wgpu.Extent3D{}); !errors.Is(err, ErrProviderKind) {
		t.Errorf("SetTexture on buffers: got %v", err)
	}
	if err := buffers.SetMeshBuffers(nil, nil, 3); !errors.Is(err, ErrProviderKind) {
		t.Errorf("SetMeshBuffers on buffers: got %v", err)
	}

	textures := NewBindGroupProvider("rig Animation", WithKind(ProviderKindTextures))
	if err := textures.SetMeshBuffers(nil, nil, 3); !errors.Is(err, ErrProviderKind) {
		t.Errorf("SetMeshBuffers on textures: got %v", err)
	}

	mesh := NewBindGroupProvider("rig Mesh", WithKind(ProviderKindMesh))
	if err := mesh.SetTexture(0, nil, nil, wgpu.Extent3D{}); !errors.Is(err, ErrProviderKind) {
		t.Errorf("SetTexture on mesh: got %v", err)
	}
	if err := mesh.SetMeshBuffers(nil, nil, 36); err != nil {
		t.Fatalf("SetMeshBuffers: %v", err)
	}
	if mesh.IndexCount() != 36 {
		t.Errorf("index count: got %d, want 36", mesh.IndexCount())
	}
	mesh.Release()
	if mesh.IndexCount() != 0 {
		t.Errorf("Release kept index count %d", mesh.IndexCount())
	}
}

func TestProviderKindString(t *testing.T) {
	tests := map[ProviderKind]string{
		ProviderKindBuffers:  "buffers",
		ProviderKindMesh:     "mesh",
		ProviderKindTextures: "textures",
		ProviderKind(7):      "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(kind), got, want)
		}
	}
}

func TestBufferWriteValidate(t *testing.T) {
	p := NewBindGroupProvider("rig Playback")
	tests := []struct {
		name  string
		write BufferWrite
		want  error
	}{
		{"valid", BufferWrite{Provider: p, Offset: 16, Data: make([]byte, 16)}, nil},
		{"no provider", BufferWrite{Data: make([]byte, 16)}, ErrEmptyWrite},
		{"no data", BufferWrite{Provider: p}, ErrEmptyWrite},
		{"unaligned offset", BufferWrite{Provider: p, Offset: 2, Data: make([]byte, 16)}, ErrUnalignedWrite},
		{"unaligned size", BufferWrite{Provider: p, Data: make([]byte, 6)}, ErrUnalignedWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.write.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	w := BufferWrite{Provider: p, Offset: 32, Data: make([]byte, 16)}
	if w.End() != 48 {
		t.Errorf("End: got %d, want 48", w.End())
	}
}

package animator

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// CameraGroup is the bind group index of the camera uniform in the skinning shaders.
	CameraGroup = 0

	// CameraBinding is the binding of the view-projection uniform within CameraGroup.
	CameraBinding = 0
)

// ErrGroupConflict is returned when an animator's groups collide with CameraGroup or each other.
var ErrGroupConflict = errors.New("bind group indices overlap")

//go:embed assets/skinned_mesh.wgsl
var skinnedMeshVertexSource string

//go:embed assets/skinned_mesh_frag.wgsl
var skinnedMeshFragmentSource string

// SkinningVertexSource composes the skinned mesh vertex shader for a model with trackCount tracks:
// the camera uniform, the texture and playback bindings from ShaderSource and vs_main, which blends
// track_matrix(track, bone, frame) * bind pose over the vertex's bone-weight entries.
//
// Parameters:
//   - textureGroup: the bind group index of the animation textures
//   - playbackGroup: the bind group index of the playback buffer
//   - trackCount: the number of tracks
//
// Returns:
//   - string: the WGSL source
func SkinningVertexSource(textureGroup, playbackGroup uint32, trackCount int) string {
	var b strings.Builder
	b.WriteString(ShaderSource(textureGroup, playbackGroup, trackCount))
	b.WriteString("\n")
	b.WriteString(skinnedMeshVertexSource)
	fmt.Fprintf(&b, "\n@group(%d) @binding(%d) var<uniform> camera: Camera;\n", CameraGroup, CameraBinding)
	return b.String()
}

// SkinningFragmentSource returns the flat-shaded fragment shader paired with SkinningVertexSource.
//
// Returns:
//   - string: the WGSL source
func SkinningFragmentSource() string {
	return skinnedMeshFragmentSource
}

// NewSkinningPipeline builds the render pipeline that draws the animator's model with its animation
// textures. The shaders are generated for the model's track count and the animator's groups.
//
// Parameters:
//   - a: the animator whose model and groups the pipeline is built for
//   - opts: extra pipeline options, e.g. pipeline.WithCullMode
//
// Returns:
//   - pipeline.Pipeline: the pipeline, not yet created on a device
//   - error: ErrNoModel, ErrGroupConflict or a shader parse error
func NewSkinningPipeline(a Animator, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	m := a.Model()
	if m == nil {
		return nil, ErrNoModel
	}
	textureGroup, playbackGroup := a.TextureGroup(), a.PlaybackGroup()
	if textureGroup == CameraGroup || playbackGroup == CameraGroup || textureGroup == playbackGroup {
		return nil, fmt.Errorf("%w: camera %d, textures %d, playback %d", ErrGroupConflict, CameraGroup, textureGroup, playbackGroup)
	}

	key := m.Name() + " Skinning"
	vs, err := shader.NewShader(key+" Vertex", shader.ShaderTypeVertex, SkinningVertexSource(textureGroup, playbackGroup, m.TrackCount()))
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(key+" Fragment", shader.ShaderTypeFragment, SkinningFragmentSource())
	if err != nil {
		return nil, err
	}

	options := append([]pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	}, opts...)
	return pipeline.NewPipeline(key, options...), nil
}

// GPUCameraData is the camera uniform read by the skinning vertex shader. Size: 64 bytes.
type GPUCameraData struct {
	ViewProj mgl32.Mat4 // offset 0: column-major view-projection matrix
}

// Marshal serializes the camera uniform for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUCameraData) Marshal() []byte {
	return append([]byte(nil), common.SliceToBytes(g.ViewProj[:])...)
}

// CameraLayoutDescriptor builds the layout of the camera group.
//
// Parameters:
//   - label: the layout label
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func CameraLayoutDescriptor(label string) wgpu.BindGroupLayoutDescriptor {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    CameraBinding,
		Visibility: wgpu.ShaderStageVertex,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	entry.Buffer.MinBindingSize = 64
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label + " Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{entry},
	}
}

// InitCamera creates the camera uniform buffer and bind group.
//
// Parameters:
//   - r: the renderer owning the device
//   - label: the provider label
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the camera provider
//   - error: error if bind group creation fails
func InitCamera(r renderer.Renderer, label string) (bind_group_provider.BindGroupProvider, error) {
	provider := bind_group_provider.NewBindGroupProvider(label + " Camera")
	if err := r.InitBindGroup(provider, CameraLayoutDescriptor(label), nil, nil); err != nil {
		provider.Release()
		return nil, fmt.Errorf("failed to create camera bind group: %w", err)
	}
	return provider, nil
}

// CameraWrite stages a view-projection update of a camera provider.
//
// Parameters:
//   - camera: the provider from InitCamera
//   - viewProj: the view-projection matrix
//
// Returns:
//   - bind_group_provider.BufferWrite: the write for Renderer.WriteBuffers
func CameraWrite(camera bind_group_provider.BindGroupProvider, viewProj mgl32.Mat4) bind_group_provider.BufferWrite {
	data := GPUCameraData{ViewProj: viewProj}
	return bind_group_provider.BufferWrite{
		Provider: camera,
		Binding:  CameraBinding,
		Offset:   0,
		Data:     data.Marshal(),
	}
}

// Draw draws every instance of the animator's model within the renderer's current frame: the
// camera group, the animation texture group and the playback group are bound, then one instanced
// draw is issued.
//
// Parameters:
//   - r: the renderer with a frame in progress
//   - p: a pipeline from NewSkinningPipeline created with Renderer.InitRenderPipeline
//   - a: the animator, initialized with Init
//   - camera: the camera provider from InitCamera
//
// Returns:
//   - error: renderer.ErrNoFrame, ErrNoModel, ErrNotInitialized (mesh or camera) or a draw error
func Draw(r renderer.Renderer, p pipeline.Pipeline, a Animator, camera bind_group_provider.BindGroupProvider) error {
	pass := r.FramePass()
	if pass == nil {
		return renderer.ErrNoFrame
	}
	m := a.Model()
	if m == nil {
		return ErrNoModel
	}
	if m.MeshProvider() == nil {
		return fmt.Errorf("%w: %s has no mesh buffers", ErrNotInitialized, m.Name())
	}
	if a.InstanceCount() == 0 {
		return nil
	}
	if camera == nil || !camera.Ready() {
		return fmt.Errorf("%w: camera bind group", ErrNotInitialized)
	}

	if err := a.Bind(pass); err != nil {
		return err
	}
	pass.SetBindGroup(CameraGroup, camera.BindGroup(), nil)
	return r.DrawCall(p, m.MeshProvider(), a.InstanceCount())
}

// Package pipeline describes render pipelines: a vertex and a fragment shader plus the fixed-function
// state used to build the GPU pipeline object.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrMissingShader is returned by Validate when a stage has no shader or a shader of the wrong stage.
	ErrMissingShader = errors.New("render pipeline is missing a shader")

	// ErrNoVertexLayout is returned by Validate when the vertex shader declares no vertex input struct.
	ErrNoVertexLayout = errors.New("vertex shader declares no vertex input")
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the GPU object label
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	renderPipeline *wgpu.RenderPipeline

	// fixed-function state, toggled with the builder options

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
	colorFormat         wgpu.TextureFormat
	depthFormat         wgpu.TextureFormat
}

// Pipeline defines the interface for a render pipeline. It holds the vertex and fragment shaders and
// every piece of fixed-function state needed to create the GPU pipeline, and the created pipeline
// once a renderer has built it.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader of a stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Validate checks that both stages are set with shaders of the right stage and that the vertex
	// shader declares a vertex input.
	//
	// Returns:
	//   - error: ErrMissingShader or ErrNoVertexLayout
	Validate() error

	// BindGroupLayouts returns the bind group layouts of both stages merged per group.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the layouts keyed by group index
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts of the vertex shader.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, in buffer slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// RenderPipelineDescriptor builds the descriptor the GPU pipeline is created from.
	//
	// Parameters:
	//   - layout: the pipeline layout
	//   - vertexModule: the compiled vertex shader module
	//   - fragmentModule: the compiled fragment shader module
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor
	RenderPipelineDescriptor(layout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	//
	// Returns:
	//   - int32: the depth bias
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	//
	// Returns:
	//   - float32: the slope scale
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the winding order
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// ColorFormat returns the format of the color target.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color format
	ColorFormat() wgpu.TextureFormat

	// DepthFormat returns the format of the depth target, TextureFormatUndefined for none.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format
	DepthFormat() wgpu.TextureFormat

	// RenderPipeline returns the created GPU pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline, or nil before a renderer created it
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// Release frees the GPU pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render Pipeline. Defaults: depth test and write on, no culling, triangle
// lists, CCW front faces, RGBA8 color and Depth24Plus depth.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		colorFormat:       wgpu.TextureFormatRGBA8Unorm,
		depthFormat:       wgpu.TextureFormatDepth24Plus,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil || p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return fmt.Errorf("%w: %s has no vertex shader", ErrMissingShader, p.pipelineKey)
	}
	if p.fragmentShader == nil || p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return fmt.Errorf("%w: %s has no fragment shader", ErrMissingShader, p.pipelineKey)
	}
	if len(p.vertexShader.VertexLayouts()) == 0 {
		return fmt.Errorf("%w: %s", ErrNoVertexLayout, p.vertexShader.Key())
	}
	return nil
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertexLayouts = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragmentLayouts = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return shader.MergeBindGroupLayouts(vertexLayouts, fragmentLayouts)
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	if p.vertexShader == nil {
		return nil
	}
	return p.vertexShader.VertexLayouts()
}

func (p *pipeline) RenderPipelineDescriptor(layout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	target := wgpu.ColorTargetState{
		Format:    p.colorFormat,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:  vertexModule,
			Buffers: p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:  fragmentModule,
			Targets: []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.vertexShader != nil {
		desc.Vertex.EntryPoint = p.vertexShader.EntryPoint()
	}
	if p.fragmentShader != nil {
		desc.Fragment.EntryPoint = p.fragmentShader.EntryPoint()
	}

	if p.depthFormat != wgpu.TextureFormatUndefined {
		depthCompare := wgpu.CompareFunctionLess
		if !p.depthTestEnabled {
			depthCompare = wgpu.CompareFunctionAlways
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	return desc
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

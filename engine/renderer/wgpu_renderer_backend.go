package renderer

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	// offscreen render target, recreated by InitRenderTarget
	colorTexture, depthTexture *wgpu.Texture
	colorView, depthView       *wgpu.TextureView

	// per-frame objects, non-nil between BeginFrame and EndFrame
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
}

type wgpuRendererBackend interface {
	// InitMeshBuffers creates vertex and index buffers on the device and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the buffers
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw index bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the layout, any missing buffers and the bind group for the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the bind group
	//   - descriptor: the layout descriptor
	//   - bufferUsageOverrides: extra buffer usage flags keyed by binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes keyed by binding (nil safe)
	//
	// Returns:
	//   - error: an error if a texture binding has no view or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads an RGBA32F staging texture and stores the texture and view on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the texture
	//   - bindingKey: the binding index
	//   - stagingData: the texel data
	//
	// Returns:
	//   - error: an error if the staging data is malformed or creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteBuffers queues every buffer write.
	//
	// Parameters:
	//   - writes: the writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	InitRenderPipeline(p pipeline.Pipeline) error
	InitRenderTarget(width, height uint32, colorFormat, depthFormat wgpu.TextureFormat) error
	ColorTarget() *wgpu.Texture
	BeginFrame(clear wgpu.Color) error
	FramePass() *wgpu.RenderPassEncoder
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32) error
	EndFrame() error

	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Instance() *wgpu.Instance
	Adapter() *wgpu.Adapter

	SetDevice(device *wgpu.Device)
	SetQueue(queue *wgpu.Queue)
	SetInstance(instance *wgpu.Instance)
	SetAdapter(adapter *wgpu.Adapter)

	// Release frees the queue, device, adapter and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(label string, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.SetAdapter(a)

	// Every clip occupies one sampled texture in the animation bind group.
	limits := wgpu.DefaultLimits()
	limits.MaxSampledTexturesPerShaderStage = 64

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: label + " Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.SetDevice(d)
	w.SetQueue(d.GetQueue())

	return w, nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if provider.Kind() != bind_group_provider.ProviderKindMesh {
		return fmt.Errorf("%w: %s is a %v provider", bind_group_provider.ErrProviderKind, provider.Label(), provider.Kind())
	}
	if len(vertexData) == 0 || len(indexData) == 0 {
		return fmt.Errorf("mesh %s has no vertex or index data", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertexBuf, err := b.createFilledBuffer(provider.Label()+" Vertex Buffer", wgpu.BufferUsageVertex, vertexData)
	if err != nil {
		return err
	}
	indexBuf, err := b.createFilledBuffer(provider.Label()+" Index Buffer", wgpu.BufferUsageIndex, indexData)
	if err != nil {
		vertexBuf.Release()
		return err
	}

	return provider.SetMeshBuffers(vertexBuf, indexBuf, indexCount)
}

// createFilledBuffer creates a buffer sized to data and queues data into it.
func (b *wgpuRendererBackendImpl) createFilledBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d has no texture view, call InitTextureView first", binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
			continue
		}

		var usage wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
			usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		}
		if overrideUsage, ok := bufferUsageOverrides[binding]; ok {
			usage |= overrideUsage
		}

		buf := provider.Buffer(binding)
		if buf == nil {
			bufSize := entry.Buffer.MinBindingSize
			if overrideSize, ok := bufferSizeOverrides[binding]; ok {
				bufSize = overrideSize
			}
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: provider.Label() + " Buffer",
				Size:  bufSize,
				Usage: usage,
			})
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
		}
		bindGroupEntries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	if provider.Kind() != bind_group_provider.ProviderKindTextures {
		return fmt.Errorf("%w: %s is a %v provider", bind_group_provider.ErrProviderKind, provider.Label(), provider.Kind())
	}
	if err := stagingData.Validate(); err != nil {
		return err
	}
	extent := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: 1,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	label := common.Coalesce(stagingData.Label, provider.Label()+" Texture")
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        stagingData.Format(),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Bytes(),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.BytesPerRow(),
			RowsPerImage: stagingData.Height,
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	if err := provider.SetTexture(bindingKey, tex, view, extent); err != nil {
		view.Release()
		tex.Release()
		return err
	}

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if err := w.Validate(); err != nil {
			log.Printf("[Renderer] dropped buffer write: %v", err)
			continue
		}
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) InitRenderPipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("failed to compile vertex shader %q: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("failed to compile fragment shader %q: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	merged := p.BindGroupLayouts()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}

	// Groups neither stage declares get an empty layout so group indices stay stable.
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range bindGroupLayouts {
		desc := merged[g]
		desc.Label = fmt.Sprintf("%s Group %d Layout", p.PipelineKey(), g)
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		defer layout.Release()
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	created, err := b.device.CreateRenderPipeline(p.RenderPipelineDescriptor(pipelineLayout, vs, fs))
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %q: %w", p.PipelineKey(), err)
	}

	p.Release()
	p.SetRenderPipeline(created)

	return nil
}

func (b *wgpuRendererBackendImpl) InitRenderTarget(width, height uint32, colorFormat, depthFormat wgpu.TextureFormat) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("invalid render target size %dx%d", width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseTargetLocked()

	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	color, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Color Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        colorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("failed to create color target: %w", err)
	}
	colorView, err := color.CreateView(nil)
	if err != nil {
		color.Release()
		return fmt.Errorf("failed to create color target view: %w", err)
	}
	b.colorTexture, b.colorView = color, colorView

	if depthFormat == wgpu.TextureFormatUndefined {
		return nil
	}
	depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.releaseTargetLocked()
		return fmt.Errorf("failed to create depth target: %w", err)
	}
	depthView, err := depth.CreateView(nil)
	if err != nil {
		depth.Release()
		b.releaseTargetLocked()
		return fmt.Errorf("failed to create depth target view: %w", err)
	}
	b.depthTexture, b.depthView = depth, depthView

	return nil
}

func (b *wgpuRendererBackendImpl) ColorTarget() *wgpu.Texture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.colorTexture
}

func (b *wgpuRendererBackendImpl) BeginFrame(clear wgpu.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.colorView == nil {
		return ErrNoRenderTarget
	}
	if b.framePass != nil {
		return ErrFrameInProgress
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       b.colorView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear,
		}},
	}
	if b.depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(desc)
	return nil
}

func (b *wgpuRendererBackendImpl) FramePass() *wgpu.RenderPassEncoder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.framePass
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	if p.RenderPipeline() == nil {
		return fmt.Errorf("pipeline %q has not been created", p.PipelineKey())
	}
	if meshProvider.VertexBuffer() == nil || meshProvider.IndexBuffer() == nil {
		return fmt.Errorf("mesh provider %q has no vertex or index buffer", meshProvider.Label())
	}

	b.framePass.SetPipeline(p.RenderPipeline())
	b.framePass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
	if err != nil {
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// releaseTargetLocked frees the offscreen render target.
func (b *wgpuRendererBackendImpl) releaseTargetLocked() {
	for _, view := range []*wgpu.TextureView{b.colorView, b.depthView} {
		if view != nil {
			view.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{b.colorTexture, b.depthTexture} {
		if tex != nil {
			tex.Release()
		}
	}
	b.colorView, b.depthView = nil, nil
	b.colorTexture, b.depthTexture = nil, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Instance() *wgpu.Instance {
	return b.instance
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) SetDevice(device *wgpu.Device) {
	b.device = device
}

func (b *wgpuRendererBackendImpl) SetQueue(queue *wgpu.Queue) {
	b.queue = queue
}

func (b *wgpuRendererBackendImpl) SetInstance(instance *wgpu.Instance) {
	b.instance = instance
}

func (b *wgpuRendererBackendImpl) SetAdapter(adapter *wgpu.Adapter) {
	b.adapter = adapter
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseTargetLocked()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

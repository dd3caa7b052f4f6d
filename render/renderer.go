// Package render drives the fractal shader on a GPU through the wgpu
// HAL. Frames are drawn into an offscreen BGRA8 target and read back as
// RGBA images, so the same path serves both the interactive viewer and
// headless captures.
package render

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fractal/params"
	"github.com/gogpu/fractal/shader"
)

// ErrNoProgram means a frame was requested before any shader program
// was installed.
var ErrNoProgram = errors.New("render: no shader program installed")

const fenceTimeout = 5 * time.Second

// Renderer owns the GPU resources of the fractal pass: the active
// pipeline, the uniform buffer and the offscreen target. SetProgram
// builds the incoming pipeline completely before swapping, so a frame
// in flight never observes a half-installed program.
type Renderer struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	// Program-independent resources, created on first use.
	uniformBuf    hal.Buffer
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	bindGroup     hal.BindGroup

	// Active program slot.
	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
	program  *shader.Program

	// Offscreen target, recreated on resize.
	targetTex  hal.Texture
	targetView hal.TextureView
	width      uint32
	height     uint32
}

// New creates a renderer on an opened device. No GPU resources are
// allocated until the first SetProgram.
func New(device hal.Device, queue hal.Queue) *Renderer {
	return &Renderer{device: device, queue: queue}
}

// Program returns the currently installed program, or nil.
func (r *Renderer) Program() *shader.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.program
}

// SetProgram builds a pipeline for an assembled program and swaps it
// in. On any failure the previous program stays installed and keeps
// rendering.
func (r *Renderer) SetProgram(p *shader.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureStatic(); err != nil {
		return err
	}

	module, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "fractal_shader",
		Source: hal.ShaderSource{SPIRV: p.SPIRV},
	})
	if err != nil {
		return &shader.CompileError{Message: err.Error()}
	}

	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "fractal_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.device.DestroyShaderModule(module)
		return &shader.CompileError{Message: err.Error()}
	}

	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
	}
	r.shader = module
	r.pipeline = pipeline
	r.program = p
	return nil
}

// ensureStatic creates the uniform buffer, its layout and the pipeline
// layout. These do not depend on the program or the frame size.
func (r *Renderer) ensureStatic() error {
	if r.pipeLayout != nil {
		return nil
	}

	uniformBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fractal_uniforms",
		Size:  params.EncodedSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create uniform buffer: %w", err)
	}

	uniformLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "fractal_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		r.device.DestroyBuffer(uniformBuf)
		return fmt.Errorf("render: create uniform layout: %w", err)
	}

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fractal_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{uniformLayout},
	})
	if err != nil {
		r.device.DestroyBindGroupLayout(uniformLayout)
		r.device.DestroyBuffer(uniformBuf)
		return fmt.Errorf("render: create pipeline layout: %w", err)
	}

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "fractal_bind_group",
		Layout: uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: params.EncodedSize,
			}},
		},
	})
	if err != nil {
		r.device.DestroyPipelineLayout(pipeLayout)
		r.device.DestroyBindGroupLayout(uniformLayout)
		r.device.DestroyBuffer(uniformBuf)
		return fmt.Errorf("render: create bind group: %w", err)
	}

	r.uniformBuf = uniformBuf
	r.uniformLayout = uniformLayout
	r.pipeLayout = pipeLayout
	r.bindGroup = bindGroup
	return nil
}

// ensureTarget creates or recreates the offscreen colour target.
func (r *Renderer) ensureTarget(w, h uint32) error {
	if r.width == w && r.height == h && r.targetTex != nil {
		return nil
	}
	r.destroyTarget()

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fractal_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("render: create target texture: %w", err)
	}
	r.targetTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "fractal_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTarget()
		return fmt.Errorf("render: create target view: %w", err)
	}
	r.targetView = view

	r.width = w
	r.height = h
	return nil
}

func (r *Renderer) destroyTarget() {
	if r.targetView != nil {
		r.device.DestroyTextureView(r.targetView)
		r.targetView = nil
	}
	if r.targetTex != nil {
		r.device.DestroyTexture(r.targetTex)
		r.targetTex = nil
	}
	r.width = 0
	r.height = 0
}

// RenderFrame draws one frame with the given parameters and reads it
// back as an RGBA image.
func (r *Renderer) RenderFrame(block params.Block, width, height int) (*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	data, err := block.Encode()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pipeline == nil {
		return nil, ErrNoProgram
	}
	w, h := uint32(width), uint32(height)
	if err := r.ensureTarget(w, h); err != nil {
		return nil, err
	}

	r.queue.WriteBuffer(r.uniformBuf, 0, data)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "fractal_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("render: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("fractal_frame"); err != nil {
		return nil, fmt.Errorf("render: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "fractal_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	// The attachment has to reach a copy-source layout before readback.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fractal_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("render: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("render: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("render: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("render: submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("render: wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, pixelBufSize)
	if err := r.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("render: readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bgraToRGBA(readback, img.Pix)
	return img, nil
}

// Destroy releases every GPU resource. The renderer is unusable
// afterwards. Safe to call more than once.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return
	}
	r.destroyTarget()
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.uniformLayout != nil {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	r.program = nil
}

// bgraToRGBA swizzles readback pixels into image order.
func bgraToRGBA(src, dst []byte) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i+3 < n; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}

package main

import (
	"fmt"
	"log"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fractal"
)

// panStep and zoomStep are per-keypress increments.
const (
	panStep  = 48.0
	zoomStep = 0.8
)

func runWindow(width, height int, config, preset string) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("Fractal").
		WithSize(width, height))

	var viewer *fractal.Viewer
	var lastTex gpucontext.Texture

	app.OnDraw(func(dc *gogpu.Context) {
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}

		if viewer == nil {
			provider := app.GPUContextProvider()
			if provider == nil {
				return
			}
			device, queue, err := halFrom(provider)
			if err != nil {
				log.Fatalf("GPU unavailable: %v", err)
			}
			viewer, err = fractal.NewViewer(device, queue, w, h)
			if err != nil {
				log.Fatalf("viewer: %v", err)
			}
			if config != "" {
				if err := viewer.Import(config); err != nil {
					log.Fatalf("config: %v", err)
				}
			}
			if preset != "" {
				if err := viewer.ApplyPreset(preset); err != nil {
					log.Fatalf("preset: %v", err)
				}
			}
			log.Printf("backend: %s", dc.Backend())
		}

		viewer.Resize(w, h)
		img, err := viewer.Frame()
		if err != nil {
			log.Printf("frame: %v", err)
			return
		}

		td := dc.AsTextureDrawer()
		creator := td.TextureCreator()
		if creator == nil {
			return
		}
		raw, err := creator.NewTextureFromRGBA(w, h, img.Pix)
		if err != nil {
			log.Printf("texture upload: %v", err)
			return
		}
		tex, ok := raw.(gpucontext.Texture)
		if !ok {
			log.Printf("texture upload: unexpected texture type %T", raw)
			return
		}
		if err := td.DrawTexture(tex, 0, 0); err != nil {
			log.Printf("draw: %v", err)
		}

		// NewTextureFromRGBA waits for the GPU, so the previous frame's
		// texture is no longer referenced and can go now.
		if lastTex != nil {
			if d, ok := lastTex.(interface{ Destroy() }); ok {
				d.Destroy()
			}
		}
		lastTex = tex
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if viewer == nil {
			return
		}
		handleKey(viewer, key)
	})

	app.OnClose(func() {
		if viewer != nil {
			viewer.Close()
		}
	})

	return app.Run()
}

func handleKey(v *fractal.Viewer, key gpucontext.Key) {
	switch key {
	// Pan takes a content-drag delta, so moving the camera left means
	// dragging the content right.
	case gpucontext.KeyLeft:
		v.Pan(panStep, 0)
	case gpucontext.KeyRight:
		v.Pan(-panStep, 0)
	case gpucontext.KeyUp:
		v.Pan(0, panStep)
	case gpucontext.KeyDown:
		v.Pan(0, -panStep)
	case gpucontext.KeyMinus:
		v.ZoomAt(0, 0, 1/zoomStep)
	case gpucontext.KeyEqual:
		v.ZoomAt(0, 0, zoomStep)
	case gpucontext.KeyR:
		v.Reset()
	case gpucontext.KeyS:
		s := v.Settings()
		s.Smooth = !s.Smooth
		if err := v.ApplySettings(s); err != nil {
			log.Printf("smooth toggle: %v", err)
		}
	case gpucontext.KeyB:
		s := v.Settings()
		s.InteriorBlack = !s.InteriorBlack
		if err := v.ApplySettings(s); err != nil {
			log.Printf("interior toggle: %v", err)
		}
	case gpucontext.KeyE:
		raw, err := v.Export()
		if err != nil {
			log.Printf("export: %v", err)
			return
		}
		fmt.Println(raw)
	case gpucontext.Key1, gpucontext.Key2, gpucontext.Key3, gpucontext.Key4:
		presets := fractal.Presets()
		idx := int(key - gpucontext.Key1)
		if idx < len(presets) {
			if err := v.ApplyPreset(presets[idx].Name); err != nil {
				log.Printf("preset: %v", err)
			}
		}
	}
}

// halFrom extracts the shared HAL device and queue from the app's GPU
// context provider.
func halFrom(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

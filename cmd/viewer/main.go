// Package main is the entry point for the prism scene viewer.
package main

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/config"
	"github.com/hollowtree/prism/internal/engine/asset"
	"github.com/hollowtree/prism/internal/engine/camera"
	"github.com/hollowtree/prism/internal/engine/debug"
	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/input"
	"github.com/hollowtree/prism/internal/engine/renderer"
	"github.com/hollowtree/prism/internal/engine/window"
	"github.com/hollowtree/prism/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== prism viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	win, err := window.New(instance, cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}
	defer win.Close()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: win.Surface(),
	})
	if err != nil {
		return errors.Wrap(err, "requesting adapter")
	}
	defer adapter.Release()

	wgpuDevice, err := adapter.RequestDevice(nil)
	if err != nil {
		return errors.Wrap(err, "requesting device")
	}
	defer wgpuDevice.Release()

	device, err := gpu.NewNativeDevice(wgpuDevice, wgpuDevice.GetQueue())
	if err != nil {
		return err
	}
	defer device.Release()

	width, height := win.Size()
	rend, err := renderer.New(device, adapter, win.Surface(), renderer.Config{
		Width:      width,
		Height:     height,
		VSync:      cfg.Graphics.VSync,
		ClearColor: cfg.Graphics.ClearColor,
	})
	if err != nil {
		return err
	}
	defer rend.Release()

	scene, err := asset.LoadAll(cfg.Assets.ModelPaths(), device)
	if err != nil {
		return err
	}

	var overlays []*debug.Overlay
	if cfg.Graphics.DrawBounds {
		packs := make([]*asset.Pack, 0, scene.Len())
		packs = append(packs, scene.Opaque()...)
		packs = append(packs, scene.Transparent()...)
		for _, pack := range packs {
			overlay, err := debug.NewBoxOverlay(device, pack.Name, pack.Bounds)
			if err != nil {
				return err
			}
			overlays = append(overlays, overlay)
		}
	}

	cam := camera.New()
	if cfg.Camera.MoveSpeed > 0 {
		cam.MoveSpeed = cfg.Camera.MoveSpeed
	}
	if cfg.Camera.Sensitivity > 0 {
		cam.Sensitivity = cfg.Camera.Sensitivity
	}

	in := input.New()
	in.Attach(win.Raw())
	win.CaptureCursor()

	clock := asset.NewWallClock()
	last := clock.Elapsed()

	for !win.ShouldClose() && !in.Quit() {
		win.Poll()

		now := clock.Elapsed()
		dt := now - last
		last = now

		forward, right, up := in.Direction()
		cam.HandleMove(forward, right, up, dt)
		cam.HandleLook(in.ConsumeLookDelta())

		w, h := win.Size()
		if w == 0 || h == 0 {
			// Minimized; keep pumping events.
			continue
		}
		if w != width || h != height {
			if err := rend.Resize(w, h); err != nil {
				return err
			}
			width, height = w, h
		}

		aspect := float32(w) / float32(h)
		if err := rend.Render(cam.UniformBytes(aspect), scene, clock, overlays); err != nil {
			// A lost surface recovers on the next configure; skip the
			// frame rather than tearing the viewer down.
			logger.Warn("frame skipped", zap.Error(err))
		}
	}

	return nil
}

// Command meshdemo renders a grid of polygons through the trimesh batch
// renderer on a HAL backend, headless noop by default, and logs per-frame
// statistics.
//
// Usage:
//
//	meshdemo [-config settings.toml] [-backend auto] [-samples 4] [-frames 10] [-v]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/backend"
	"github.com/gogpu/trimesh/backend/native"
	"github.com/gogpu/trimesh/meshcore"
)

func main() {
	defaults := DefaultConfig()
	configPath := flag.String("config", "", "TOML settings file")
	backendName := flag.String("backend", defaults.Backend, "HAL backend ("+strings.Join(backend.Available(), ", ")+" or auto)")
	width := flag.Uint("width", uint(defaults.Width), "canvas width in logical pixels")
	height := flag.Uint("height", uint(defaults.Height), "canvas height in logical pixels")
	scale := flag.Float64("scale", float64(defaults.ScaleFactor), "logical to physical scale factor")
	samples := flag.Uint("samples", uint(defaults.Samples), "MSAA sample count (1, 2, 4, 8 or 16)")
	frames := flag.Int("frames", defaults.Frames, "number of frames to render")
	meshes := flag.Int("meshes", defaults.Meshes, "number of meshes per frame")
	sides := flag.Int("sides", defaults.Sides, "polygon sides per mesh")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "meshdemo:", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backendName
		case "width":
			cfg.Width = uint32(*width)
		case "height":
			cfg.Height = uint32(*height)
		case "scale":
			cfg.ScaleFactor = float32(*scale)
		case "samples":
			cfg.Samples = uint32(*samples)
		case "frames":
			cfg.Frames = *frames
		case "meshes":
			cfg.Meshes = *meshes
		case "sides":
			cfg.Sides = *sides
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})

	logger := newLogger(cfg.LogLevel)
	trimesh.SetLogger(slog.New(logger))

	if err := run(cfg); err != nil {
		logger.Fatal("render failed", "err", err)
	}
}

// newLogger builds the terminal logger. Unknown levels fall back to info.
func newLogger(level string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "meshdemo",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// run renders cfg.Frames frames of the demo scene.
func run(cfg Config) error {
	aa, err := cfg.Validate()
	if err != nil {
		return err
	}
	logger := trimesh.Logger()

	var dev *backend.Device
	if cfg.Backend == autoBackend {
		dev, err = backend.OpenDefault()
	} else {
		dev, err = backend.Open(cfg.Backend)
	}
	if err != nil {
		return err
	}
	defer dev.Close()

	adapter := native.NewHALAdapter(dev.Device, dev.Queue, &dev.Limits)
	defer adapter.Destroy()

	physW := uint32(math32.Ceil(float32(cfg.Width) * cfg.ScaleFactor))
	physH := uint32(math32.Ceil(float32(cfg.Height) * cfg.ScaleFactor))
	target, release, err := createTarget(adapter, physW, physH)
	if err != nil {
		return err
	}
	defer release()

	renderer, err := meshcore.New(adapter, gputypes.TextureFormatBGRA8Unorm,
		meshcore.WithAntialiasing(aa),
		meshcore.WithLabel("meshdemo"),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()

	belt := native.NewStagingBelt(adapter, 0)
	defer belt.Destroy()

	transform := trimesh.Orthographic(physW, physH).
		Multiply(trimesh.Scale(cfg.ScaleFactor, cfg.ScaleFactor))

	for i := 0; i < cfg.Frames; i++ {
		rec, err := adapter.BeginFrame(fmt.Sprintf("meshdemo_frame_%d", i))
		if err != nil {
			return err
		}
		err = renderer.Render(&meshcore.Frame{
			Recorder:       rec,
			Belt:           belt,
			Target:         target,
			Width:          physW,
			Height:         physH,
			Transformation: transform,
			ScaleFactor:    cfg.ScaleFactor,
			Meshes:         buildScene(cfg.Meshes, cfg.Sides, float32(cfg.Width), float32(cfg.Height), i),
		})
		if err != nil {
			rec.Discard()
			return fmt.Errorf("frame %d: %w", i, err)
		}
		belt.Finish()
		if err := rec.Submit(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		belt.Recall()
		released := adapter.Recall()

		stats := renderer.Stats()
		logger.Info("frame rendered",
			"frame", i,
			"meshes", stats.Meshes,
			"draws", stats.Draws,
			"vertices", stats.Vertices,
			"indices", stats.Indices,
			"writes", stats.Writes,
			"resolved", stats.Resolved,
			"released_buffers", released)
	}

	caps := renderer.Capacities()
	hits, misses, modules := adapter.ShaderCacheStats()
	logger.Info("done",
		"backend", dev.Backend,
		"adapter", dev.AdapterName,
		"shader_cache_hits", hits,
		"shader_cache_misses", misses,
		"shader_modules", modules,
		"antialiasing", aa.String(),
		"vertex_capacity", caps.Vertices,
		"index_capacity", caps.Indices,
		"uniform_capacity", caps.Meshes,
		"staging_chunks", belt.Chunks(),
		"staged_bytes", belt.StagedBytes())
	return nil
}

func createTarget(a *native.HALAdapter, w, h uint32) (meshcore.TextureViewID, func(), error) {
	tex, err := a.Device().CreateTexture(&hal.TextureDescriptor{
		Label:         "meshdemo_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return meshcore.InvalidID, nil, fmt.Errorf("create target: %w", err)
	}
	view, err := a.Device().CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "meshdemo_target_view"})
	if err != nil {
		a.Device().DestroyTexture(tex)
		return meshcore.InvalidID, nil, fmt.Errorf("create target view: %w", err)
	}
	id := a.RegisterTextureView(view)
	return id, func() {
		a.UnregisterTextureView(id)
		a.Device().DestroyTextureView(view)
		a.Device().DestroyTexture(tex)
	}, nil
}

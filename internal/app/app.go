// Package app wires the window, GPU backend and viewer logic together and
// runs the main loop.
package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/assets"
	"github.com/Faultbox/model-viewer/internal/config"
	"github.com/Faultbox/model-viewer/internal/engine/camera"
	"github.com/Faultbox/model-viewer/internal/engine/gpu"
	"github.com/Faultbox/model-viewer/internal/engine/input"
	"github.com/Faultbox/model-viewer/internal/engine/renderer"
	"github.com/Faultbox/model-viewer/internal/engine/shader"
	"github.com/Faultbox/model-viewer/internal/engine/window"
	"github.com/Faultbox/model-viewer/internal/export"
	"github.com/Faultbox/model-viewer/internal/importer"
	"github.com/Faultbox/model-viewer/internal/logger"
	"github.com/Faultbox/model-viewer/internal/viewer"
	"github.com/Faultbox/model-viewer/pkg/math"
)

// App is the viewer instance. It owns every resource; nothing is kept
// in package state.
type App struct {
	config *config.Config
	log    *zap.Logger

	window     *window.Window
	program    *shader.Program
	renderer   *renderer.Renderer
	textures   *assets.Manager
	session    *viewer.Session
	controller *viewer.Controller
	input      *input.State
	exporter   *export.Exporter

	events  []input.Event
	dialogs chan dialogResult
	busy    bool // a native dialog is open
	running bool
}

// dialogResult carries a native dialog answer back to the main loop.
type dialogResult struct {
	action viewer.Action
	path   string
	err    error

	// Frame captured when a save dialog was requested.
	pixels        []byte
	width, height int
}

// New creates the window, GL state and shader program and loads the
// configured model. A missing or broken start model is logged and the
// viewer opens empty.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		config:  cfg,
		log:     logger.Named("app"),
		input:   input.New(),
		events:  make([]input.Event, 0, 32),
		dialogs: make(chan dialogResult, 1),
	}

	a.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, fmt.Errorf("export format: %w", err)
	}
	a.exporter = export.New(cfg.Export.Dir, cfg.Export.Prefix, format, cfg.Export.JPEGQuality)

	// Window first: it creates the GL context everything else needs.
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := gpu.Init(); err != nil {
		a.Close()
		return nil, err
	}

	a.program, err = shader.Load(gpu.Driver{}, cfg.Shaders.Vertex, cfg.Shaders.Fragment)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build shader program: %w", err)
	}

	width, height := a.window.DrawableSize()
	a.textures = assets.NewManager()
	a.renderer = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		FOV:        cfg.Camera.FOV,
		Near:       cfg.Camera.Near,
		Far:        cfg.Camera.Far,
		ClearColor: cfg.Window.ClearColor,
		Light:      renderer.DefaultLight(),
	}, gpu.Backend{}, a.program, a.textures)

	a.session = viewer.NewSession(importer.Load, a.renderer, viewer.SessionConfig{
		Normalize: cfg.Model.Normalize,
		FitSize:   cfg.Model.FitSize,
	})

	cam := camera.New(
		math.Vec3From(cfg.Camera.Position),
		cfg.Camera.Yaw,
		cfg.Camera.Pitch,
		cfg.Camera.Speed,
		cfg.Camera.Sensitivity,
	)
	a.controller = viewer.NewController(cam, cfg.Model.SpinSpeed)

	if cfg.Model.Path != "" {
		a.open(cfg.Model.Path)
	} else {
		a.log.Info("no model given, drop a file on the window or press O")
	}

	a.log.Info("viewer initialized")
	return a, nil
}

// Run starts the main loop and returns when the window is closed.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	a.log.Info("starting main loop")

	for a.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		a.events = a.window.PollEvents(a.events[:0])
		a.input.Update(a.events)
		for _, cmd := range a.controller.Update(a.input, dt) {
			a.handle(cmd)
		}
		a.pollDialogs()

		a.render()

		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) render() {
	a.renderer.Begin()

	cam := a.controller.Camera()
	spin := math.RotateY(math.Radians(a.controller.Spin()))
	a.renderer.Draw(a.session.Active(), renderer.Frame{
		View:    cam.View(),
		Model:   spin.Mul(a.session.Placement()),
		ViewPos: cam.Position(),
		UVScale: math.Vec2{X: a.config.Model.UVScale[0], Y: a.config.Model.UVScale[1]},
	})
}

func (a *App) handle(cmd viewer.Command) {
	switch cmd.Action {
	case viewer.ActionQuit:
		a.running = false
	case viewer.ActionResize:
		a.renderer.Resize(cmd.Width, cmd.Height)
	case viewer.ActionMouseLook:
		a.window.SetRelativeMouse(cmd.On)
	case viewer.ActionOpen:
		a.open(cmd.Path)
	case viewer.ActionOpenDialog:
		a.openDialog()
	case viewer.ActionExport:
		a.exportFrame()
	case viewer.ActionExportAs:
		a.exportDialog()
	case viewer.ActionResetCamera:
		a.frameModel()
	}
}

// open swaps in the model at path. Failures keep the current model and
// are logged here, once.
func (a *App) open(path string) {
	err := a.session.Open(path)
	// Decoded images are only needed during upload.
	a.textures.Reset()
	if err != nil {
		var pe *importer.ParseError
		switch {
		case errors.Is(err, importer.ErrUnsupportedFormat):
			a.log.Warn("unsupported model format", zap.String("path", path), zap.Strings("supported", importer.Extensions()))
		case errors.Is(err, importer.ErrNotFound):
			a.log.Error("model file not found", zap.String("path", path))
		case errors.As(err, &pe):
			a.log.Error("model file is corrupt", zap.String("path", path), zap.Int("line", pe.Line), zap.Error(pe.Err))
		default:
			a.log.Error("model swap failed", zap.String("path", path), zap.Error(err))
		}
		return
	}

	a.window.SetTitle(fmt.Sprintf("%s - %s", a.config.Window.Title, filepath.Base(path)))
	a.frameModel()
}

// frameModel puts the camera in front of the active model.
func (a *App) frameModel() {
	center, radius := a.session.Focus()
	pos, yaw, pitch := viewer.FramePose(center, radius, a.config.Camera.FOV)
	a.controller.Camera().Reset(pos, yaw, pitch)
}

// exportFrame reads back the frame drawn last and writes it to the
// export directory. The back buffer still holds it until the next Begin.
func (a *App) exportFrame() {
	a.render()
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.exporter.Save(pixels, w, h)
	if err != nil {
		a.log.Error("frame export failed", zap.Error(err))
		return
	}
	a.log.Info("frame exported", zap.String("path", path))
}

// openDialog asks for a model file. Native dialogs block, so they run
// off the main loop and report through a.dialogs.
func (a *App) openDialog() {
	if a.busy {
		return
	}
	a.busy = true

	exts := importer.Extensions()
	go func() {
		path, err := dialog.File().
			Filter("3D Models ("+strings.Join(exts, ", ")+")", exts...).
			Filter("All Files", "*").
			Title("Open Model").
			Load()
		a.dialogs <- dialogResult{action: viewer.ActionOpen, path: path, err: err}
	}()
}

// exportDialog captures the current frame, then asks where to save it.
func (a *App) exportDialog() {
	if a.busy {
		return
	}
	a.busy = true

	a.render()
	pixels, w, h := a.renderer.ReadPixels()
	go func() {
		path, err := dialog.File().
			Filter("PNG Image", "png").
			Filter("JPEG Image", "jpg", "jpeg").
			Filter("BMP Image", "bmp").
			Title("Export Frame").
			Save()
		a.dialogs <- dialogResult{action: viewer.ActionExportAs, path: path, err: err, pixels: pixels, width: w, height: h}
	}()
}

// pollDialogs applies a finished dialog on the main thread.
func (a *App) pollDialogs() {
	select {
	case res := <-a.dialogs:
		a.busy = false
		if res.err != nil {
			if !errors.Is(res.err, dialog.ErrCancelled) {
				a.log.Error("file dialog failed", zap.Error(res.err))
			}
			return
		}
		switch res.action {
		case viewer.ActionOpen:
			a.open(res.path)
		case viewer.ActionExportAs:
			path, err := a.exporter.SaveAs(res.path, res.pixels, res.width, res.height)
			if err != nil {
				a.log.Error("frame export failed", zap.String("path", res.path), zap.Error(err))
				return
			}
			a.log.Info("frame exported", zap.String("path", path))
		}
	default:
	}
}

// Close releases GPU resources and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.session != nil {
		a.session.Close()
	}
	if a.program != nil {
		a.program.Delete()
	}
	if a.window != nil {
		a.window.Close()
	}
}

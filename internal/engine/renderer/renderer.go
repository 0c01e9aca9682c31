// Package renderer draws imported models with the model shader program.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/assets"
	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/engine/shader"
	"github.com/Faultbox/model-viewer/internal/logger"
	"github.com/Faultbox/model-viewer/pkg/math"
)

// Buffers is a mesh uploaded to the GPU.
type Buffers interface {
	Draw()
	Delete()
}

// Backend is the graphics API surface the renderer draws through.
type Backend interface {
	UploadMesh(mesh *model.Mesh) (Buffers, error)
	UploadTexture(img *image.RGBA) (uint32, error)
	BindTexture(unit int, id uint32)
	DeleteTexture(id uint32)
	Viewport(width, height int)
	Clear(color [4]float32)
	ReadPixels(width, height int) []byte
}

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	FOV        float32 // vertical, degrees
	Near       float32
	Far        float32
	ClearColor [4]float32
	Light      Light
}

// Light is the single directional light and material defaults.
type Light struct {
	Direction math.Vec3
	Ambient   float32
	Shininess float32
	BaseColor math.Vec4 // used when a mesh has no diffuse texture
}

// DefaultLight returns a light shining down and away from the viewer.
func DefaultLight() Light {
	return Light{
		Direction: math.Vec3{X: -0.3, Y: -1, Z: -0.5},
		Ambient:   0.25,
		Shininess: 32,
		BaseColor: math.Vec4{0.8, 0.8, 0.8, 1},
	}
}

// Frame holds the per-frame transforms.
type Frame struct {
	View    math.Mat4
	Model   math.Mat4
	ViewPos math.Vec3
	UVScale math.Vec2
}

// Renderer draws models.
type Renderer struct {
	config     Config
	backend    Backend
	program    *shader.Program
	textures   *assets.Manager
	projection math.Mat4
	log        *zap.Logger
}

// New creates a renderer and sets the initial viewport.
func New(cfg Config, backend Backend, program *shader.Program, textures *assets.Manager) *Renderer {
	r := &Renderer{
		config:   cfg,
		backend:  backend,
		program:  program,
		textures: textures,
		log:      logger.Named("renderer"),
	}
	r.Resize(cfg.Width, cfg.Height)
	return r
}

// Resize updates the viewport and projection. A zero size, as reported
// for minimized windows, keeps the previous projection.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.config.Width = width
	r.config.Height = height
	r.backend.Viewport(width, height)
	r.projection = math.Perspective(math.Radians(r.config.FOV), r.Aspect(), r.config.Near, r.config.Far)
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Size returns the current framebuffer size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Aspect returns width / height.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Projection returns the current projection matrix.
func (r *Renderer) Projection() math.Mat4 {
	return r.projection
}

// Begin clears the frame.
func (r *Renderer) Begin() {
	r.backend.Clear(r.config.ClearColor)
}

// Model is a model uploaded to the GPU.
type Model struct {
	Source   *model.Model
	meshes   []gpuMesh
	textures []uint32
}

type gpuMesh struct {
	buffers  Buffers
	textures []boundTexture
}

type boundTexture struct {
	kind     model.TextureKind
	id       uint32
	fallback bool // the file could not be decoded; id holds the white stand-in
}

// Upload sends every mesh and texture of m to the GPU. On failure all
// objects created so far are released and m is left untouched.
func (r *Renderer) Upload(m *model.Model) (*Model, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	gm := &Model{Source: m}
	uploaded := make(map[string]boundTexture)

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		if len(mesh.Indices) == 0 {
			continue
		}
		buffers, err := r.backend.UploadMesh(mesh)
		if err != nil {
			r.Release(gm)
			return nil, fmt.Errorf("upload mesh %d %q: %w", i, mesh.Name, err)
		}
		gpu := gpuMesh{buffers: buffers}

		for _, ref := range mesh.Textures {
			t, ok := uploaded[ref.Path]
			if !ok {
				img, decoded := r.textures.Load(ref.Path)
				id, err := r.backend.UploadTexture(img)
				if err != nil {
					r.log.Warn("texture upload failed", zap.String("path", ref.Path), zap.Error(err))
					continue
				}
				t = boundTexture{id: id, fallback: !decoded}
				uploaded[ref.Path] = t
				gm.textures = append(gm.textures, id)
			}
			t.kind = ref.Kind
			gpu.textures = append(gpu.textures, t)
		}
		gm.meshes = append(gm.meshes, gpu)
	}

	r.log.Debug("model uploaded",
		zap.String("path", m.Path),
		zap.Int("meshes", len(gm.meshes)),
		zap.Int("textures", len(gm.textures)),
	)
	return gm, nil
}

// Release frees the GPU objects of gm. It is safe to call twice.
func (r *Renderer) Release(gm *Model) {
	if gm == nil {
		return
	}
	for _, m := range gm.meshes {
		m.buffers.Delete()
	}
	for _, id := range gm.textures {
		r.backend.DeleteTexture(id)
	}
	gm.meshes = nil
	gm.textures = nil
}

// Draw renders gm with the current projection.
func (r *Renderer) Draw(gm *Model, f Frame) {
	if gm == nil {
		return
	}
	p := r.program
	p.Use()

	uvScale := f.UVScale
	if uvScale == (math.Vec2{}) {
		uvScale = math.Vec2{X: 1, Y: 1}
	}
	p.SetMat4("projection", r.projection)
	p.SetMat4("view", f.View)
	p.SetMat4("model", f.Model)
	p.SetMat3("normalMatrix", f.Model.NormalMatrix())
	p.SetVec2("uvScale", uvScale)
	p.SetVec3("viewPos", f.ViewPos)
	p.SetVec3("lightDir", r.config.Light.Direction)
	p.SetFloat("ambient", r.config.Light.Ambient)
	p.SetFloat("shininess", r.config.Light.Shininess)
	p.SetVec4("baseColor", r.config.Light.BaseColor)

	for _, mesh := range gm.meshes {
		r.bindTextures(mesh.textures)
		mesh.buffers.Draw()
	}
	r.backend.BindTexture(0, 0)
}

// bindTextures binds each texture to its own unit and points the sampler
// texture_<kind>N at it, N counting from 1 per kind. Fallback textures
// keep their sampler valid but do not count as maps, so the material
// color shows through.
func (r *Renderer) bindTextures(textures []boundTexture) {
	var counts, maps [3]int
	for unit, t := range textures {
		n := 1
		if int(t.kind) < len(counts) {
			counts[t.kind]++
			n = counts[t.kind]
			if !t.fallback {
				maps[t.kind]++
			}
		}
		r.backend.BindTexture(unit, t.id)
		r.program.SetInt(t.kind.Uniform()+strconv.Itoa(n), int32(unit))
	}
	r.program.SetBool("hasDiffuse", maps[model.Diffuse] > 0)
	r.program.SetBool("hasSpecular", maps[model.Specular] > 0)
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	return r.backend.ReadPixels(width, height), width, height
}

package renderer

import (
	"errors"
	"image"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/engine/shader"
)

// recordingDriver resolves every uniform the model shaders declare and
// remembers the last value uploaded under each name.
type recordingDriver struct {
	names  []string
	ints   map[string]int32
	floats map[string][]float32
	next   uint32
}

var modelUniforms = []string{
	"model", "view", "projection", "normalMatrix", "uvScale",
	"texture_diffuse1", "texture_diffuse2", "texture_specular1", "texture_normal1",
	"hasDiffuse", "hasSpecular", "baseColor", "lightDir", "viewPos", "ambient", "shininess",
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{
		names:  modelUniforms,
		ints:   make(map[string]int32),
		floats: make(map[string][]float32),
	}
}

func (d *recordingDriver) CreateShader(shader.Stage) uint32 {
	d.next++
	return d.next
}

func (d *recordingDriver) CompileShader(uint32, string) (bool, string) { return true, "" }
func (d *recordingDriver) DeleteShader(uint32) {}
func (d *recordingDriver) CreateProgram() uint32 {
	d.next++
	return d.next
}

func (d *recordingDriver) LinkProgram(uint32, ...uint32) (bool, string) {
	return true, ""
}
func (d *recordingDriver) DeleteProgram(uint32) {}
func (d *recordingDriver) UseProgram(uint32) {}

func (d *recordingDriver) UniformLocation(_ uint32, name string) int32 {
	for i, n := range d.names {
		if n == name {
			return int32(i)
		}
	}
	return shader.NotFound
}

func (d *recordingDriver) Uniform1i(loc int32, v int32) { d.ints[d.names[loc]] = v }
func (d *recordingDriver) Uniform1f(loc int32, v float32) {
	d.floats[d.names[loc]] = []float32{v}
}
func (d *recordingDriver) UniformVec(loc int32, v []float32) {
	d.floats[d.names[loc]] = append([]float32(nil), v...)
}
func (d *recordingDriver) UniformMatrix(loc int32, _ int, m []float32) {
	d.floats[d.names[loc]] = append([]float32(nil), m...)
}

type fakeBuffers struct {
	backend *fakeBackend
	name    string
	deleted bool
}

func (b *fakeBuffers) Draw() {
	b.backend.draws = append(b.backend.draws, b.name)
	b.backend.boundAtDraw = append(b.backend.boundAtDraw, copyUnits(b.backend.units))
}

func (b *fakeBuffers) Delete() {
	if !b.deleted {
		b.deleted = true
		b.backend.liveMeshes--
	}
}

type fakeBackend struct {
	failMesh string

	nextTex     uint32
	uploads     int
	liveMeshes  int
	liveTex     map[uint32]bool
	units       map[int]uint32
	draws       []string
	boundAtDraw []map[int]uint32
	viewport    [2]int
	clears      int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		liveTex: make(map[uint32]bool),
		units:   make(map[int]uint32),
	}
}

func (b *fakeBackend) UploadMesh(mesh *model.Mesh) (Buffers, error) {
	if mesh.Name == b.failMesh {
		return nil, errors.New("out of memory")
	}
	b.liveMeshes++
	return &fakeBuffers{backend: b, name: mesh.Name}, nil
}

func (b *fakeBackend) UploadTexture(*image.RGBA) (uint32, error) {
	b.uploads++
	b.nextTex++
	b.liveTex[b.nextTex] = true
	return b.nextTex, nil
}

func (b *fakeBackend) BindTexture(unit int, id uint32) {
	if id == 0 {
		delete(b.units, unit)
		return
	}
	b.units[unit] = id
}

func (b *fakeBackend) DeleteTexture(id uint32) { delete(b.liveTex, id) }
func (b *fakeBackend) Viewport(w, h int) { b.viewport = [2]int{w, h} }
func (b *fakeBackend) Clear([4]float32) { b.clears++ }
func (b *fakeBackend) ReadPixels(w, h int) []byte { return make([]byte, w*h*4) }

func copyUnits(m map[int]uint32) map[int]uint32 {
	out := make(map[int]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

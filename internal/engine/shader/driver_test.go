package shader

import "strings"

// fakeDriver is an in-memory Driver. Uniforms are declared up front;
// uploads are recorded per location.
type fakeDriver struct {
	next     uint32
	failOn   Stage
	fail     bool
	uniforms map[string]int32

	shaders  map[uint32]Stage
	programs map[uint32]bool
	bound    uint32

	ints   map[int32]int32
	floats map[int32][]float32
	calls  int
}

func newFakeDriver(uniforms ...string) *fakeDriver {
	d := &fakeDriver{
		uniforms: make(map[string]int32),
		shaders:  make(map[uint32]Stage),
		programs: make(map[uint32]bool),
		ints:     make(map[int32]int32),
		floats:   make(map[int32][]float32),
	}
	for i, name := range uniforms {
		d.uniforms[name] = int32(i)
	}
	return d
}

func (d *fakeDriver) failAt(stage Stage) *fakeDriver {
	d.fail = true
	d.failOn = stage
	return d
}

func (d *fakeDriver) CreateShader(stage Stage) uint32 {
	d.next++
	d.shaders[d.next] = stage
	return d.next
}

func (d *fakeDriver) CompileShader(shader uint32, source string) (bool, string) {
	if strings.Contains(source, "syntax error") {
		return false, "0:1: syntax error"
	}
	if d.fail && d.shaders[shader] == d.failOn {
		return false, "forced failure"
	}
	return true, ""
}

func (d *fakeDriver) DeleteShader(shader uint32) { delete(d.shaders, shader) }

func (d *fakeDriver) CreateProgram() uint32 {
	d.next++
	d.programs[d.next] = true
	return d.next
}

func (d *fakeDriver) LinkProgram(program uint32, shaders ...uint32) (bool, string) {
	if d.fail && d.failOn == StageLink {
		return false, "undefined varying"
	}
	return true, ""
}

func (d *fakeDriver) DeleteProgram(program uint32) { delete(d.programs, program) }
func (d *fakeDriver) UseProgram(program uint32)    { d.bound = program }

func (d *fakeDriver) UniformLocation(program uint32, name string) int32 {
	d.calls++
	if loc, ok := d.uniforms[name]; ok {
		return loc
	}
	return NotFound
}

func (d *fakeDriver) Uniform1i(location int32, v int32) {
	d.mustBeValid(location)
	d.ints[location] = v
}

func (d *fakeDriver) Uniform1f(location int32, v float32) {
	d.mustBeValid(location)
	d.floats[location] = []float32{v}
}

func (d *fakeDriver) UniformVec(location int32, v []float32) {
	d.mustBeValid(location)
	d.floats[location] = append([]float32(nil), v...)
}

func (d *fakeDriver) UniformMatrix(location int32, dim int, m []float32) {
	d.mustBeValid(location)
	if len(m) != dim*dim {
		panic("matrix size mismatch")
	}
	d.floats[location] = append([]float32(nil), m...)
}

func (d *fakeDriver) mustBeValid(location int32) {
	if location == NotFound {
		panic("upload to NotFound location")
	}
}

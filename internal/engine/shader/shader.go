// Package shader owns the compile/link lifecycle of a GPU program and
// exposes typed uniform upload.
package shader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/logger"
	"github.com/Faultbox/model-viewer/pkg/math"
)

// NotFound is the location the driver reports for an unknown uniform.
// Uploads to it are ignored.
const NotFound int32 = -1

// Stage identifies a program stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageLink
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageLink:
		return "link"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a Program.
type State int

const (
	Unlinked State = iota
	Linked
	Failed
)

func (s State) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case Linked:
		return "linked"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Driver is the subset of the graphics API a Program needs.
type Driver interface {
	CreateShader(stage Stage) uint32
	CompileShader(shader uint32, source string) (ok bool, infoLog string)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	LinkProgram(program uint32, shaders ...uint32) (ok bool, infoLog string)
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	// UniformVec uploads a 2, 3 or 4 component float vector.
	UniformVec(location int32, v []float32)
	// UniformMatrix uploads a dim x dim column-major matrix.
	UniformMatrix(location int32, dim int, m []float32)
}

// Program is a linked GPU program.
type Program struct {
	driver    Driver
	handle    uint32
	state     State
	locations map[string]int32
}

// New compiles both stages and links them.
// On failure the driver objects are released and a *CompileError is
// returned; a failed Program is never handed out.
func New(driver Driver, vertexSource, fragmentSource string) (*Program, error) {
	p := &Program{
		driver:    driver,
		locations: make(map[string]int32),
	}
	if err := p.build(vertexSource, fragmentSource); err != nil {
		p.state = Failed
		logger.Error("shader program failed",
			zap.Stringer("stage", err.Stage),
			zap.String("log", err.Log),
		)
		return nil, err
	}
	p.state = Linked
	logger.Debug("shader program linked", zap.Uint32("program", p.handle))
	return p, nil
}

func (p *Program) build(vertexSource, fragmentSource string) *CompileError {
	vert, err := p.compile(StageVertex, vertexSource)
	if err != nil {
		return err
	}
	defer p.driver.DeleteShader(vert)

	frag, err := p.compile(StageFragment, fragmentSource)
	if err != nil {
		return err
	}
	defer p.driver.DeleteShader(frag)

	program := p.driver.CreateProgram()
	if ok, log := p.driver.LinkProgram(program, vert, frag); !ok {
		p.driver.DeleteProgram(program)
		return &CompileError{Stage: StageLink, Log: log}
	}
	p.handle = program
	return nil
}

func (p *Program) compile(stage Stage, source string) (uint32, *CompileError) {
	sh := p.driver.CreateShader(stage)
	if ok, log := p.driver.CompileShader(sh, source); !ok {
		p.driver.DeleteShader(sh)
		return 0, &CompileError{Stage: stage, Log: log}
	}
	return sh, nil
}

// Handle returns the driver program handle.
func (p *Program) Handle() uint32 { return p.handle }

// State returns the lifecycle state.
func (p *Program) State() State { return p.state }

// Use binds the program for subsequent draw calls.
func (p *Program) Use() {
	p.driver.UseProgram(p.handle)
}

// Delete releases the program. The Program must not be used afterwards.
func (p *Program) Delete() {
	if p.handle != 0 {
		p.driver.DeleteProgram(p.handle)
		p.handle = 0
	}
	p.locations = make(map[string]int32)
}

// Location returns the cached uniform location for name, or NotFound.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := p.driver.UniformLocation(p.handle, name)
	p.locations[name] = loc
	return loc
}

// SetBool sets a bool uniform.
func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetInt(name, i)
}

// SetInt sets an int (or sampler) uniform.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.Location(name); loc != NotFound {
		p.driver.Uniform1i(loc, v)
	}
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Location(name); loc != NotFound {
		p.driver.Uniform1f(loc, v)
	}
}

// SetVec2 sets a vec2 uniform.
func (p *Program) SetVec2(name string, v math.Vec2) {
	a := v.Array()
	p.setVec(name, a[:])
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v math.Vec3) {
	a := v.Array()
	p.setVec(name, a[:])
}

// SetVec4 sets a vec4 uniform.
func (p *Program) SetVec4(name string, v math.Vec4) {
	p.setVec(name, v[:])
}

// SetMat2 sets a mat2 uniform.
func (p *Program) SetMat2(name string, m math.Mat2) {
	p.setMatrix(name, 2, m[:])
}

// SetMat3 sets a mat3 uniform.
func (p *Program) SetMat3(name string, m math.Mat3) {
	p.setMatrix(name, 3, m[:])
}

// SetMat4 sets a mat4 uniform.
func (p *Program) SetMat4(name string, m math.Mat4) {
	p.setMatrix(name, 4, m[:])
}

func (p *Program) setVec(name string, v []float32) {
	if loc := p.Location(name); loc != NotFound {
		p.driver.UniformVec(loc, v)
	}
}

func (p *Program) setMatrix(name string, dim int, m []float32) {
	if loc := p.Location(name); loc != NotFound {
		p.driver.UniformMatrix(loc, dim, m)
	}
}

// CompileError reports a failed compile or link.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	if e.Stage == StageLink {
		return fmt.Sprintf("link: %s", e.Log)
	}
	return fmt.Sprintf("%s shader: %s", e.Stage, e.Log)
}

// Package gpu is the OpenGL 4.1 core backend: program compilation,
// uniform upload, mesh and texture buffers and color readback.
//
// Every function must run on the thread that owns the GL context.
package gpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/shader"
	"github.com/Faultbox/model-viewer/internal/logger"
)

// Init loads the GL function pointers and sets the default state.
// It must be called after the context is created.
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return nil
}

// Viewport sets the drawable area.
func Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Clear clears color and depth with the given color.
func Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Driver implements shader.Driver on the current GL context.
type Driver struct{}

var _ shader.Driver = Driver{}

var stageTypes = map[shader.Stage]uint32{
	shader.StageVertex:   gl.VERTEX_SHADER,
	shader.StageFragment: gl.FRAGMENT_SHADER,
}

func (Driver) CreateShader(stage shader.Stage) uint32 {
	return gl.CreateShader(stageTypes[stage])
}

func (Driver) CompileShader(sh uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(buf *uint8) {
		gl.GetShaderInfoLog(sh, logLength, nil, buf)
	})
}

func (Driver) DeleteShader(sh uint32) { gl.DeleteShader(sh) }

func (Driver) CreateProgram() uint32 { return gl.CreateProgram() }

func (Driver) LinkProgram(program uint32, shaders ...uint32) (bool, string) {
	for _, sh := range shaders {
		gl.AttachShader(program, sh)
	}
	gl.LinkProgram(program)
	for _, sh := range shaders {
		gl.DetachShader(program, sh)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(buf *uint8) {
		gl.GetProgramInfoLog(program, logLength, nil, buf)
	})
}

func (Driver) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (Driver) UseProgram(program uint32) { gl.UseProgram(program) }

func (Driver) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (Driver) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (Driver) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (Driver) UniformVec(loc int32, v []float32) {
	switch len(v) {
	case 2:
		gl.Uniform2fv(loc, 1, &v[0])
	case 3:
		gl.Uniform3fv(loc, 1, &v[0])
	case 4:
		gl.Uniform4fv(loc, 1, &v[0])
	}
}

func (Driver) UniformMatrix(loc int32, dim int, m []float32) {
	switch dim {
	case 2:
		gl.UniformMatrix2fv(loc, 1, false, &m[0])
	case 3:
		gl.UniformMatrix3fv(loc, 1, false, &m[0])
	case 4:
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func infoLog(length int32, read func(*uint8)) string {
	if length <= 0 {
		return "no info log"
	}
	log := strings.Repeat("\x00", int(length+1))
	read(gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

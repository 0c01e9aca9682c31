package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Faultbox/model-viewer/internal/engine/shader/shaders"
)

// ErrSourceNotFound is returned when a shader source file does not exist.
var ErrSourceNotFound = errors.New("shader source not found")

// SourceError reports a shader source file that could not be read.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("shader source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ReadSource reads a shader source file.
// A missing file yields a *SourceError wrapping ErrSourceNotFound.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &SourceError{Path: path, Err: ErrSourceNotFound}
		}
		return "", &SourceError{Path: path, Err: err}
	}
	return string(data), nil
}

// Load reads both stage sources from disk and builds a program.
// An empty path selects the embedded default for that stage.
func Load(driver Driver, vertexPath, fragmentPath string) (*Program, error) {
	vert := shaders.ModelVertexShader
	if vertexPath != "" {
		src, err := ReadSource(vertexPath)
		if err != nil {
			return nil, err
		}
		vert = src
	}

	frag := shaders.ModelFragmentShader
	if fragmentPath != "" {
		src, err := ReadSource(fragmentPath)
		if err != nil {
			return nil, err
		}
		frag = src
	}

	return New(driver, vert, frag)
}

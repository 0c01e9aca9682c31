// Package importer loads model files from disk into model.Model values.
//
// Supported formats are glTF 2.0 (.gltf, .glb), Wavefront OBJ with MTL
// material libraries (.obj) and STL in ASCII or binary form (.stl).
// Every mesh is triangulated, gets normals when the file has none, and
// has its texture coordinates in OpenGL orientation (V up).
package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/logger"
)

// Import errors.
var (
	ErrNotFound          = errors.New("model file not found")
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// ParseError reports corrupt file content. Line is 0 for binary formats.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type loader func(path string) ([]model.Mesh, error)

var loaders = map[string]loader{
	".gltf": loadGLTF,
	".glb":  loadGLTF,
	".obj":  loadOBJ,
	".stl":  loadSTL,
}

// Extensions returns the supported file extensions without the dot,
// suitable for a file dialog filter.
func Extensions() []string {
	return []string{"gltf", "glb", "obj", "stl"}
}

// Supported reports whether path has an extension Load understands.
func Supported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load imports the model at path.
func Load(path string) (*model.Model, error) {
	ext := strings.ToLower(filepath.Ext(path))
	load, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}
	if info.IsDir() {
		return nil, &ParseError{Path: path, Err: errors.New("is a directory")}
	}

	meshes, err := load(path)
	if err != nil {
		return nil, err
	}

	for i := range meshes {
		postProcess(&meshes[i])
	}

	m := &model.Model{
		Path:      path,
		Directory: filepath.Dir(path),
		Meshes:    meshes,
	}
	m.ComputeBounds()

	vertices, triangles := m.Stats()
	logger.Debug("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(meshes)),
		zap.Int("vertices", vertices),
		zap.Int("triangles", triangles),
	)
	return m, nil
}

// postProcess fills in normals for meshes that came without any.
func postProcess(mesh *model.Mesh) {
	for _, v := range mesh.Vertices {
		if v.Normal != ([3]float32{}) {
			return
		}
	}
	if len(mesh.Vertices) > 0 {
		mesh.GenerateNormals()
	}
}

// resolve makes a texture path from a model file relative to its directory.
func resolve(dir, ref string) string {
	ref = filepath.FromSlash(strings.TrimSpace(ref))
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}

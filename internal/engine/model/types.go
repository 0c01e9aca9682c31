// Package model holds imported mesh data ready for GPU upload.
package model

import "github.com/Faultbox/model-viewer/pkg/math"

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// TextureKind is the role of a texture in the material.
type TextureKind int

const (
	Diffuse TextureKind = iota
	Specular
	Normal
)

// Uniform returns the sampler name prefix used by the shader, e.g.
// "texture_diffuse". The n-th texture of a kind binds to prefix+n (1-based).
func (k TextureKind) Uniform() string {
	switch k {
	case Diffuse:
		return "texture_diffuse"
	case Specular:
		return "texture_specular"
	case Normal:
		return "texture_normal"
	default:
		return "texture_unknown"
	}
}

func (k TextureKind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Normal:
		return "normal"
	default:
		return "unknown"
	}
}

// TextureRef points at a texture image on disk.
type TextureRef struct {
	Kind TextureKind
	Path string // absolute, or relative to the working directory
}

// Mesh is an indexed triangle list sharing one material.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Textures []TextureRef
}

// Model is an imported model file.
type Model struct {
	Path      string
	Directory string
	Meshes    []Mesh
	Bounds    Bounds
}

// Empty reports whether the model has nothing to draw.
func (m *Model) Empty() bool {
	for i := range m.Meshes {
		if len(m.Meshes[i].Indices) > 0 {
			return false
		}
	}
	return true
}

// Stats returns vertex and triangle counts over all meshes.
func (m *Model) Stats() (vertices, triangles int) {
	for i := range m.Meshes {
		vertices += len(m.Meshes[i].Vertices)
		triangles += len(m.Meshes[i].Indices) / 3
	}
	return vertices, triangles
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the box center.
func (b Bounds) Center() math.Vec3 {
	return math.Vec3{
		X: (b.Min[0] + b.Max[0]) / 2,
		Y: (b.Min[1] + b.Max[1]) / 2,
		Z: (b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return math.Vec3{
		X: b.Max[0] - b.Min[0],
		Y: b.Max[1] - b.Min[1],
		Z: b.Max[2] - b.Min[2],
	}
}

// MaxExtent returns the largest side of the box.
func (b Bounds) MaxExtent() float32 {
	s := b.Size()
	m := s.X
	if s.Y > m {
		m = s.Y
	}
	if s.Z > m {
		m = s.Z
	}
	return m
}

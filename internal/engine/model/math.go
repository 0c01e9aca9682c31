package model

import (
	"github.com/Faultbox/model-viewer/pkg/math"
)

// ComputeBounds calculates the bounding box over all mesh vertices.
// An empty model gets a zero box at the origin.
func (m *Model) ComputeBounds() {
	b := Bounds{
		Min: [3]float32{1e30, 1e30, 1e30},
		Max: [3]float32{-1e30, -1e30, -1e30},
	}
	seen := false
	for i := range m.Meshes {
		for _, v := range m.Meshes[i].Vertices {
			seen = true
			for k := 0; k < 3; k++ {
				if v.Position[k] < b.Min[k] {
					b.Min[k] = v.Position[k]
				}
				if v.Position[k] > b.Max[k] {
					b.Max[k] = v.Position[k]
				}
			}
		}
	}
	if !seen {
		b = Bounds{}
	}
	m.Bounds = b
}

// FitTransform returns a matrix that moves the bounds center to the origin
// and scales the largest extent to size.
func (b Bounds) FitTransform(size float32) math.Mat4 {
	c := b.Center()
	scale := float32(1)
	if ext := b.MaxExtent(); ext > 0 {
		scale = size / ext
	}
	return math.Scale(scale, scale, scale).Mul(math.Translate(-c.X, -c.Y, -c.Z))
}

// GenerateNormals replaces vertex normals with area-weighted averages of
// the adjacent face normals.
func (mesh *Mesh) GenerateNormals() {
	acc := make([]math.Vec3, len(mesh.Vertices))
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		ia, ib, ic := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		if int(ia) >= len(acc) || int(ib) >= len(acc) || int(ic) >= len(acc) {
			continue
		}
		a := math.Vec3From(mesh.Vertices[ia].Position)
		b := math.Vec3From(mesh.Vertices[ib].Position)
		c := math.Vec3From(mesh.Vertices[ic].Position)
		// Unnormalized cross product weights by triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		acc[ia] = acc[ia].Add(n)
		acc[ib] = acc[ib].Add(n)
		acc[ic] = acc[ic].Add(n)
	}
	for i := range mesh.Vertices {
		n := acc[i].Normalize()
		if n == (math.Vec3{}) {
			n = math.WorldUp
		}
		mesh.Vertices[i].Normal = n.Array()
	}
}

// FlipV mirrors texture coordinates vertically (v = 1 - v).
func (mesh *Mesh) FlipV() {
	for i := range mesh.Vertices {
		mesh.Vertices[i].TexCoord[1] = 1 - mesh.Vertices[i].TexCoord[1]
	}
}

package gpu

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/model-viewer/internal/engine/model"
)

// Vertex attribute locations shared with the model shaders.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribTexCoord = 2
)

// MeshBuffers is an uploaded indexed mesh.
type MeshBuffers struct {
	VAO   uint32
	VBO   uint32
	EBO   uint32
	Count int32
}

// UploadMesh copies a mesh into a new VAO with interleaved vertex data.
func UploadMesh(mesh *model.Mesh) (*MeshBuffers, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, errors.New("mesh has no geometry")
	}

	b := &MeshBuffers{Count: int32(len(mesh.Indices))}
	stride := int32(unsafe.Sizeof(model.Vertex{}))

	gl.GenVertexArrays(1, &b.VAO)
	gl.BindVertexArray(b.VAO)

	gl.GenBuffers(1, &b.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(AttribPosition)
	gl.VertexAttribPointerWithOffset(AttribPosition, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.Position))
	gl.EnableVertexAttribArray(AttribNormal)
	gl.VertexAttribPointerWithOffset(AttribNormal, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.Normal))
	gl.EnableVertexAttribArray(AttribTexCoord)
	gl.VertexAttribPointerWithOffset(AttribTexCoord, 2, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.TexCoord))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		b.Delete()
		return nil, glError("upload mesh", code)
	}
	return b, nil
}

// Draw issues the indexed draw call.
func (b *MeshBuffers) Draw() {
	gl.BindVertexArray(b.VAO)
	gl.DrawElements(gl.TRIANGLES, b.Count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Delete releases the GL objects.
func (b *MeshBuffers) Delete() {
	if b.EBO != 0 {
		gl.DeleteBuffers(1, &b.EBO)
	}
	if b.VBO != 0 {
		gl.DeleteBuffers(1, &b.VBO)
	}
	if b.VAO != 0 {
		gl.DeleteVertexArrays(1, &b.VAO)
	}
	*b = MeshBuffers{}
}

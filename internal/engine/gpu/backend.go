package gpu

import (
	"image"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/engine/renderer"
)

// Backend implements renderer.Backend on the current GL context.
type Backend struct{}

var _ renderer.Backend = Backend{}

func (Backend) UploadMesh(mesh *model.Mesh) (renderer.Buffers, error) {
	b, err := UploadMesh(mesh)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (Backend) UploadTexture(img *image.RGBA) (uint32, error) { return UploadTexture(img) }

func (Backend) BindTexture(unit int, id uint32) { BindTexture(unit, id) }

func (Backend) DeleteTexture(id uint32) { DeleteTexture(id) }

func (Backend) Viewport(width, height int) { Viewport(width, height) }

func (Backend) Clear(c [4]float32) { Clear(c[0], c[1], c[2], c[3]) }

func (Backend) ReadPixels(width, height int) []byte { return ReadPixels(width, height) }

package importer

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/logger"
	"github.com/Faultbox/model-viewer/pkg/math"
)

func loadGLTF(path string) (meshes []model.Mesh, err error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// modeler reads slices straight from buffer offsets; a hostile sparse
	// accessor can still index past them.
	defer func() {
		if r := recover(); r != nil {
			meshes, err = nil, &ParseError{Path: path, Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	l := &gltfLoader{
		doc:     doc,
		path:    path,
		dir:     filepath.Dir(path),
		visited: make(map[uint32]bool),
	}
	roots, err := l.roots()
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	for _, root := range roots {
		if err := l.walk(root, math.Identity(), 0); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}
	return l.meshes, nil
}

// maxNodeDepth bounds recursion for very deep hierarchies.
const maxNodeDepth = 64

type gltfLoader struct {
	doc     *gltf.Document
	path    string
	dir     string
	meshes  []model.Mesh
	visited map[uint32]bool
}

// roots returns the node indices of the default scene, or every node that
// is not a child of another when the file declares no scene.
func (l *gltfLoader) roots() ([]uint32, error) {
	doc := l.doc
	if len(doc.Scenes) > 0 {
		scene := uint32(0)
		if doc.Scene != nil {
			scene = *doc.Scene
		}
		if int(scene) >= len(doc.Scenes) {
			return nil, fmt.Errorf("scene %d out of range (%d scenes)", scene, len(doc.Scenes))
		}
		for _, n := range doc.Scenes[scene].Nodes {
			if int(n) >= len(doc.Nodes) {
				return nil, fmt.Errorf("scene node %d out of range (%d nodes)", n, len(doc.Nodes))
			}
		}
		return doc.Scenes[scene].Nodes, nil
	}

	child := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots, nil
}

// walk visits node index n and its children. glTF node hierarchies are
// disjoint trees, so a node reached twice means a cycle or a shared child.
func (l *gltfLoader) walk(n uint32, parent math.Mat4, depth int) error {
	doc := l.doc
	if depth > maxNodeDepth {
		return errors.New("node hierarchy too deep")
	}
	if int(n) >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range (%d nodes)", n, len(doc.Nodes))
	}
	if l.visited[n] {
		return fmt.Errorf("node %d referenced more than once", n)
	}
	l.visited[n] = true

	node := doc.Nodes[n]
	world := parent.Mul(nodeMatrix(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range (%d meshes)", n, *node.Mesh, len(doc.Meshes))
		}
		if err := l.addMesh(doc.Meshes[*node.Mesh], world); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := l.walk(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// accessor returns the accessor at index i.
func (l *gltfLoader) accessor(i uint32) (*gltf.Accessor, error) {
	if int(i) >= len(l.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", i, len(l.doc.Accessors))
	}
	acr := l.doc.Accessors[i]
	if acr.BufferView == nil && acr.Sparse == nil {
		return nil, fmt.Errorf("accessor %d has no data", i)
	}
	return acr, nil
}

func (l *gltfLoader) addMesh(src *gltf.Mesh, world math.Mat4) error {
	normalMatrix := world.NormalMatrix()
	for i, prim := range src.Primitives {
		mesh, err := l.primitive(prim)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", src.Name, i, err)
		}
		if mesh == nil {
			continue
		}
		mesh.Name = src.Name
		for j := range mesh.Vertices {
			v := &mesh.Vertices[j]
			v.Position = world.TransformPoint(v.Position)
			if v.Normal != ([3]float32{}) {
				v.Normal = normalMatrix.MulVec3(math.Vec3From(v.Normal)).Normalize().Array()
			}
		}
		l.meshes = append(l.meshes, *mesh)
	}
	return nil
}

// primitive converts one glTF primitive. Point and line primitives have
// nothing to shade and yield nil.
func (l *gltfLoader) primitive(prim *gltf.Primitive) (*model.Mesh, error) {
	switch prim.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		logger.Debug("skipping non-triangle primitive", zap.String("path", l.path))
		return nil, nil
	}

	doc := l.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("missing POSITION attribute")
	}
	acr, err := l.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = l.accessor(idx); err != nil {
			return nil, err
		}
		if normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = l.accessor(idx); err != nil {
			return nil, err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	mesh := &model.Mesh{Vertices: make([]model.Vertex, len(positions))}
	for i, p := range positions {
		mesh.Vertices[i].Position = p
		if i < len(normals) {
			mesh.Vertices[i].Normal = normals[i]
		}
		if i < len(uvs) {
			mesh.Vertices[i].TexCoord = uvs[i]
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = l.accessor(*prim.Indices); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range", i)
		}
	}
	mesh.Indices = triangulate(prim.Mode, indices)

	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		mesh.Textures = l.textures(doc.Materials[*prim.Material])
	}
	return mesh, nil
}

// triangulate turns strip and fan index lists into a plain triangle list.
func triangulate(mode gltf.PrimitiveMode, indices []uint32) []uint32 {
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		out := make([]uint32, 0, len(indices))
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, indices[i], indices[i+1], indices[i+2])
			} else {
				out = append(out, indices[i+1], indices[i], indices[i+2])
			}
		}
		return out
	case gltf.PrimitiveTriangleFan:
		out := make([]uint32, 0, len(indices))
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, indices[0], indices[i], indices[i+1])
		}
		return out
	default:
		return indices[:len(indices)/3*3]
	}
}

// textures maps the PBR material slots onto the viewer's texture kinds:
// base color is diffuse, metallic-roughness stands in for specular.
func (l *gltfLoader) textures(mat *gltf.Material) []model.TextureRef {
	var refs []model.TextureRef
	add := func(kind model.TextureKind, texture int) {
		if path, ok := l.imagePath(texture); ok {
			refs = append(refs, model.TextureRef{Kind: kind, Path: path})
		}
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(model.Diffuse, int(pbr.BaseColorTexture.Index))
		}
		if pbr.MetallicRoughnessTexture != nil {
			add(model.Specular, int(pbr.MetallicRoughnessTexture.Index))
		}
	}
	if nt := mat.NormalTexture; nt != nil && nt.Index != nil {
		add(model.Normal, int(*nt.Index))
	}
	return refs
}

// imagePath resolves a texture index to an image file next to the model.
// Images packed into buffers or data URIs are not referenced by path.
func (l *gltfLoader) imagePath(texture int) (string, bool) {
	doc := l.doc
	if texture < 0 || texture >= len(doc.Textures) || doc.Textures[texture].Source == nil {
		return "", false
	}
	source := *doc.Textures[texture].Source
	if int(source) >= len(doc.Images) {
		logger.Warn("glTF texture source out of range", zap.String("path", l.path), zap.Uint32("image", source))
		return "", false
	}
	img := doc.Images[source]
	if img.URI == "" || img.IsEmbeddedResource() {
		logger.Debug("embedded glTF image not supported", zap.String("path", l.path), zap.String("image", img.Name))
		return "", false
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	return resolve(l.dir, uri), true
}

// nodeMatrix returns the local transform of a node, either its explicit
// matrix or the composition T * R * S.
func nodeMatrix(node *gltf.Node) math.Mat4 {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math.Mat4(m)
	}

	t := node.Translation
	s := node.ScaleOrDefault()
	q := node.RotationOrDefault()
	return math.Translate(t[0], t[1], t[2]).
		Mul(quatMatrix(q)).
		Mul(math.Scale(s[0], s[1], s[2]))
}

// quatMatrix converts a unit quaternion (x, y, z, w) to a rotation matrix.
func quatMatrix(q [4]float32) math.Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return math.Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

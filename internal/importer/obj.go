package importer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/logger"
)

// objIndex addresses one face corner: position, texcoord, normal.
// Zero means absent; valid indices are 1-based after resolution.
type objIndex [3]int

// objGroup accumulates the faces that share a material.
type objGroup struct {
	material string
	mesh     model.Mesh
	lookup   map[objIndex]uint32
}

type objParser struct {
	path string
	dir  string

	positions [][3]float32
	texcoords [][2]float32
	normals   [][3]float32

	materials map[string][]model.TextureRef
	groups    []*objGroup
	current   *objGroup
	object    string
}

func loadOBJ(path string) ([]model.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	p := &objParser{
		path:      path,
		dir:       filepath.Dir(path),
		materials: make(map[string][]model.TextureRef),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: line, Err: err}
	}

	return p.meshes(), nil
}

func (p *objParser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		p.positions = append(p.positions, [3]float32{v[0], v[1], v[2]})
	case "vt":
		// vt u [v [w]]: v defaults to 0, w is ignored.
		n := min(len(fields)-1, 2)
		v, err := parseFloats(fields[1:], max(n, 1))
		if err != nil {
			return fmt.Errorf("texcoord: %w", err)
		}
		uv := [2]float32{v[0], 0}
		if n == 2 {
			uv[1] = v[1]
		}
		p.texcoords = append(p.texcoords, uv)
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		p.normals = append(p.normals, [3]float32{v[0], v[1], v[2]})
	case "f":
		return p.parseFace(fields[1:])
	case "usemtl":
		name := ""
		if len(fields) > 1 {
			name = fields[1]
		}
		p.use(name)
	case "mtllib":
		for _, lib := range fields[1:] {
			p.loadMTL(resolve(p.dir, lib))
		}
	case "o", "g":
		if len(fields) > 1 {
			p.object = fields[1]
		}
	}
	// Smoothing groups, lines, points and free-form geometry are ignored.
	return nil
}

// use switches to the group for material, creating it on first use.
func (p *objParser) use(material string) {
	for _, g := range p.groups {
		if g.material == material {
			p.current = g
			return
		}
	}
	name := material
	if name == "" {
		name = p.object
	}
	g := &objGroup{
		material: material,
		mesh:     model.Mesh{Name: name},
		lookup:   make(map[objIndex]uint32),
	}
	p.groups = append(p.groups, g)
	p.current = g
}

func (p *objParser) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(corners))
	}
	if p.current == nil {
		p.use("")
	}

	indices := make([]uint32, len(corners))
	for i, c := range corners {
		idx, err := p.parseCorner(c)
		if err != nil {
			return err
		}
		indices[i] = p.current.vertex(p, idx)
	}

	// Triangulate as a fan around the first corner.
	for i := 1; i+1 < len(indices); i++ {
		p.current.mesh.Indices = append(p.current.mesh.Indices, indices[0], indices[i], indices[i+1])
	}
	return nil
}

// parseCorner resolves "v", "v/vt", "v//vn" or "v/vt/vn" into 1-based indices.
func (p *objParser) parseCorner(s string) (objIndex, error) {
	var idx objIndex
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return idx, fmt.Errorf("malformed face corner %q", s)
	}
	counts := [3]int{len(p.positions), len(p.texcoords), len(p.normals)}
	for i, part := range parts {
		if part == "" {
			if i == 0 {
				return idx, fmt.Errorf("face corner %q has no position", s)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return idx, fmt.Errorf("face corner %q: %w", s, err)
		}
		if n < 0 {
			n = counts[i] + n + 1
		}
		if n < 1 || n > counts[i] {
			return idx, fmt.Errorf("face corner %q: index out of range", s)
		}
		idx[i] = n
	}
	return idx, nil
}

// vertex returns the mesh-local index for a face corner, adding the vertex
// the first time the combination is seen.
func (g *objGroup) vertex(p *objParser, idx objIndex) uint32 {
	if i, ok := g.lookup[idx]; ok {
		return i
	}
	var v model.Vertex
	v.Position = p.positions[idx[0]-1]
	if idx[1] > 0 {
		v.TexCoord = p.texcoords[idx[1]-1]
	}
	if idx[2] > 0 {
		v.Normal = p.normals[idx[2]-1]
	}
	i := uint32(len(g.mesh.Vertices))
	g.mesh.Vertices = append(g.mesh.Vertices, v)
	g.lookup[idx] = i
	return i
}

func (p *objParser) meshes() []model.Mesh {
	meshes := make([]model.Mesh, 0, len(p.groups))
	for _, g := range p.groups {
		if len(g.mesh.Indices) == 0 {
			continue
		}
		g.mesh.Textures = p.materials[g.material]
		// OBJ texture space has its origin bottom left.
		g.mesh.FlipV()
		meshes = append(meshes, g.mesh)
	}
	return meshes
}

// loadMTL reads texture maps from a material library. A missing or broken
// library only costs the textures, so it is logged and skipped.
func (p *objParser) loadMTL(path string) {
	materials, err := parseMTL(path)
	if err != nil {
		logger.Warn("material library skipped", zap.String("path", path), zap.Error(err))
		return
	}
	for name, refs := range materials {
		p.materials[name] = refs
	}
}

var mtlKinds = map[string]model.TextureKind{
	"map_kd":   model.Diffuse,
	"map_ks":   model.Specular,
	"map_bump": model.Normal,
	"bump":     model.Normal,
	"norm":     model.Normal,
}

func parseMTL(path string) (map[string][]model.TextureRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	materials := make(map[string][]model.TextureRef)
	current := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		key := strings.ToLower(fields[0])
		if key == "newmtl" {
			current = fields[1]
			materials[current] = nil
			continue
		}
		kind, ok := mtlKinds[key]
		if !ok {
			continue
		}
		// Options such as "-bm 1.0" precede the file name, which is last.
		file := fields[len(fields)-1]
		materials[current] = append(materials[current], model.TextureRef{
			Kind: kind,
			Path: resolve(dir, file),
		})
	}
	return materials, scanner.Err()
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, errors.New("not enough components")
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

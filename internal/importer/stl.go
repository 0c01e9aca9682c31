package importer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/pkg/math"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 4*3*4 + 2 // normal, 3 vertices, attribute count
)

var errTruncatedSTL = errors.New("truncated binary STL")

func loadSTL(path string) ([]model.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}

	var mesh model.Mesh
	if isBinarySTL(data) {
		mesh, err = parseBinarySTL(data)
	} else {
		mesh, err = parseASCIISTL(path, data)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	if mesh.Name == "" {
		mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return []model.Mesh{mesh}, nil
}

// isBinarySTL decides between the two encodings. Some exporters write
// "solid" into binary headers, so the declared triangle count is trusted
// over the magic word when the sizes agree.
func isBinarySTL(data []byte) bool {
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if int64(len(data)) == stlHeaderSize+4+int64(n)*stlTriangleSize {
			return true
		}
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return !bytes.HasPrefix(trimmed, []byte("solid"))
}

func parseBinarySTL(data []byte) (model.Mesh, error) {
	var mesh model.Mesh
	r := bytes.NewReader(data)

	var header struct {
		H    [stlHeaderSize]byte
		NTri uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return mesh, errTruncatedSTL
	}
	mesh.Name = strings.TrimRight(string(bytes.TrimRight(header.H[:], "\x00")), " ")
	if strings.HasPrefix(mesh.Name, "solid") {
		mesh.Name = strings.TrimSpace(strings.TrimPrefix(mesh.Name, "solid"))
	}

	var tri struct {
		Normal   [3]float32
		Vertices [3][3]float32
		Attr     uint16
	}
	capacity := int(header.NTri)
	if limit := r.Len() / stlTriangleSize; capacity > limit {
		capacity = limit
	}
	mesh.Vertices = make([]model.Vertex, 0, capacity*3)
	mesh.Indices = make([]uint32, 0, capacity*3)
	for i := uint32(0); i < header.NTri; i++ {
		if err := binary.Read(r, binary.LittleEndian, &tri); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return mesh, errTruncatedSTL
			}
			return mesh, err
		}
		addFacet(&mesh, tri.Normal, tri.Vertices)
	}
	return mesh, nil
}

func parseASCIISTL(path string, data []byte) (model.Mesh, error) {
	var mesh model.Mesh
	var normal [3]float32
	var corners [3][3]float32
	n := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		fail := func(err error) (model.Mesh, error) {
			return mesh, &ParseError{Path: path, Line: line, Err: err}
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				mesh.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) != 5 || strings.ToLower(fields[1]) != "normal" {
				return fail(errors.New("malformed facet"))
			}
			v, err := parseFloats(fields[2:], 3)
			if err != nil {
				return fail(fmt.Errorf("facet normal: %w", err))
			}
			normal = [3]float32{v[0], v[1], v[2]}
			n = 0
		case "vertex":
			if n >= 3 {
				return fail(errors.New("facet has more than 3 vertices"))
			}
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return fail(fmt.Errorf("vertex: %w", err))
			}
			corners[n] = [3]float32{v[0], v[1], v[2]}
			n++
		case "endfacet":
			if n != 3 {
				return fail(fmt.Errorf("facet has %d vertices", n))
			}
			addFacet(&mesh, normal, corners)
		case "outer", "endloop", "endsolid":
		default:
			return fail(fmt.Errorf("unexpected keyword %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return mesh, err
	}
	return mesh, nil
}

// addFacet appends an unshared triangle so every corner keeps the flat
// facet normal. A zero normal in the file is recomputed from the winding.
func addFacet(mesh *model.Mesh, normal [3]float32, corners [3][3]float32) {
	if normal == ([3]float32{}) {
		normal = faceNormal(corners)
	}
	base := uint32(len(mesh.Vertices))
	for _, c := range corners {
		mesh.Vertices = append(mesh.Vertices, model.Vertex{Position: c, Normal: normal})
	}
	mesh.Indices = append(mesh.Indices, base, base+1, base+2)
}

func faceNormal(c [3][3]float32) [3]float32 {
	a, b, d := math.Vec3From(c[0]), math.Vec3From(c[1]), math.Vec3From(c[2])
	return b.Sub(a).Cross(d.Sub(a)).Normalize().Array()
}

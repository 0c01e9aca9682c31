// Package export writes rendered frames to image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
)

// ErrUnknownFormat is returned for an unrecognised format name or extension.
var ErrUnknownFormat = errors.New("unknown image format")

// ParseFormat maps a config value such as "png" or "jpg" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png", "":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Frame converts a bottom-up RGBA readback into a top-down image.
// OpenGL returns rows starting at the bottom-left corner.
func Frame(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// Encode flips a readback and writes it to w in the given format.
// quality only applies to JPEG.
func Encode(w io.Writer, pixels []byte, width, height int, format Format, quality int) error {
	img, err := Frame(pixels, width, height)
	if err != nil {
		return err
	}

	switch format {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: clampQuality(quality)})
	case BMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}

// Exporter writes frames to disk.
type Exporter struct {
	dir     string
	prefix  string
	format  Format
	quality int

	now func() time.Time
}

// New creates an exporter writing timestamped files named
// <prefix>_<timestamp><ext> into dir.
func New(dir, prefix string, format Format, quality int) *Exporter {
	if prefix == "" {
		prefix = "frame"
	}
	return &Exporter{
		dir:     dir,
		prefix:  prefix,
		format:  format,
		quality: quality,
		now:     time.Now,
	}
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Save writes the frame to a new timestamped file and returns its path.
func (e *Exporter) Save(pixels []byte, width, height int) (string, error) {
	if e.dir != "" {
		if err := os.MkdirAll(e.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	path := e.nextFilename()
	if err := e.write(path, e.format, pixels, width, height); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs writes the frame to path, choosing the encoder by extension.
// A path without extension gets the exporter's default format.
func (e *Exporter) SaveAs(path string, pixels []byte, width, height int) (string, error) {
	format := e.format
	if filepath.Ext(path) == "" {
		path += format.Ext()
	} else {
		f, err := FormatFromPath(path)
		if err != nil {
			return "", err
		}
		format = f
	}
	if err := e.write(path, format, pixels, width, height); err != nil {
		return "", err
	}
	return path, nil
}

// nextFilename returns a timestamped path that does not exist yet.
// Several exports within the same second get a numeric suffix.
func (e *Exporter) nextFilename() string {
	stamp := e.now().Format("2006-01-02_15-04-05")
	base := fmt.Sprintf("%s_%s", e.prefix, stamp)
	name := filepath.Join(e.dir, base+e.format.Ext())
	for i := 1; fileExists(name); i++ {
		name = filepath.Join(e.dir, fmt.Sprintf("%s_%d%s", base, i, e.format.Ext()))
	}
	return name
}

func (e *Exporter) write(path string, format Format, pixels []byte, width, height int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return Encode(file, pixels, width, height, format, e.quality)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

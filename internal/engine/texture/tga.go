// Package texture decodes image files into RGBA pixel data for upload.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: truncated data")

// DecodeTGA decodes an uncompressed or RLE true-color (24/32 bit) or
// grayscale (8 bit) TGA image.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	if data[1] != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	kind := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topDown := data[17]&0x20 != 0

	gray := kind == tgaGray || kind == tgaGrayRLE
	switch {
	case kind != tgaTrueColor && kind != tgaTrueColorRLE && !gray:
		return nil, fmt.Errorf("tga: unsupported image type %d", kind)
	case gray && bpp != 8, !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}

	start := tgaHeaderSize + idLength
	if start > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		src:     data[start:],
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		stride:  bpp / 8,
		topDown: topDown,
	}
	var err error
	if kind == tgaTrueColorRLE || kind == tgaGrayRLE {
		err = d.decodeRLE()
	} else {
		err = d.decodeRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src     []byte
	pos     int
	img     *image.RGBA
	stride  int
	topDown bool
	n       int // pixels written
}

// pixel reads one BGR(A) or gray pixel at the cursor.
func (d *tgaDecoder) pixel() (color.RGBA, error) {
	if d.pos+d.stride > len(d.src) {
		return color.RGBA{}, errTGATruncated
	}
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride
	switch d.stride {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}, nil
	case 3:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}, nil
	default:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}, nil
	}
}

// put stores c at the next pixel in file order. TGA rows run bottom-up
// unless the descriptor says otherwise.
func (d *tgaDecoder) put(c color.RGBA) {
	b := d.img.Rect
	w, h := b.Dx(), b.Dy()
	x, y := d.n%w, d.n/w
	if !d.topDown {
		y = h - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.n++
}

func (d *tgaDecoder) total() int {
	return d.img.Rect.Dx() * d.img.Rect.Dy()
}

func (d *tgaDecoder) decodeRaw() error {
	for d.n < d.total() {
		c, err := d.pixel()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) decodeRLE() error {
	for d.n < d.total() {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		header := d.src[d.pos]
		d.pos++
		count := int(header&0x7F) + 1

		if header&0x80 != 0 {
			c, err := d.pixel()
			if err != nil {
				return err
			}
			for i := 0; i < count && d.n < d.total(); i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count && d.n < d.total(); i++ {
			c, err := d.pixel()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}

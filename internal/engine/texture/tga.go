package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("TGA data truncated")

// tgaWriter places pixels in file order, flipping rows for bottom-up images.
type tgaWriter struct {
	img         *image.RGBA
	width       int
	height      int
	topToBottom bool
	n           int
}

func (w *tgaWriter) full() bool { return w.n >= w.width*w.height }

func (w *tgaWriter) put(c color.RGBA) {
	x, y := w.n%w.width, w.n/w.width
	if !w.topToBottom {
		y = w.height - 1 - y
	}
	w.img.SetRGBA(x, y, c)
	w.n++
}

// tgaPixel reads one BGR(A) pixel.
func tgaPixel(p []byte, bytesPerPixel int) color.RGBA {
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if bytesPerPixel == 4 {
		c.A = p[3]
	}
	return c
}

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// images with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}
	pixels := data[offset:]
	bytesPerPixel := bpp / 8

	w := &tgaWriter{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(pixels) < width*height*bytesPerPixel {
			return nil, errTGATruncated
		}
		for i := 0; !w.full(); i += bytesPerPixel {
			w.put(tgaPixel(pixels[i:], bytesPerPixel))
		}
		return w.img, nil
	}

	decodeTGARLE(w, pixels, bytesPerPixel)
	return w.img, nil
}

// decodeTGARLE expands run-length packets. A truncated stream leaves the
// remaining pixels transparent.
func decodeTGARLE(w *tgaWriter, data []byte, bytesPerPixel int) {
	i := 0
	for !w.full() && i < len(data) {
		packet := data[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if i+bytesPerPixel > len(data) {
				return
			}
			c := tgaPixel(data[i:], bytesPerPixel)
			i += bytesPerPixel
			for ; count > 0 && !w.full(); count-- {
				w.put(c)
			}
			continue
		}

		for ; count > 0 && !w.full(); count-- {
			if i+bytesPerPixel > len(data) {
				return
			}
			w.put(tgaPixel(data[i:], bytesPerPixel))
			i += bytesPerPixel
		}
	}
}

package source

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/webp"
)

// ImageInfo describes a decoded image.
type ImageInfo struct {
	Format string
	Width  int
	Height int
	Size   int
}

// LoadImage opens and decodes the image at path.
func LoadImage(path string) (image.Image, ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return DecodeImage(f)
}

// DecodeImage decodes a JPEG, PNG, GIF or WebP image from r.
// Animated GIFs yield their first frame. Alpha is dropped, see Flatten.
func DecodeImage(r io.Reader) (image.Image, ImageInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("failed to read image: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("failed to decode image: %w", err)
	}
	img = Flatten(img)
	bounds := img.Bounds()
	return img, ImageInfo{
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   len(data),
	}, nil
}

// Flatten returns img as an opaque RGB image. Transparency is discarded
// without darkening: each pixel keeps its straight (non-premultiplied) color.
// Images that are already opaque are returned as is.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	flat := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := flat.PixOffset(x, y)
			flat.Pix[i+0] = c.R
			flat.Pix[i+1] = c.G
			flat.Pix[i+2] = c.B
			flat.Pix[i+3] = 0xff
		}
	}
	return flat
}

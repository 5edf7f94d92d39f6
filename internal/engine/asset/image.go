package asset

import (
	"bytes"
	"encoding/base64"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// decodeImage resolves and decodes one document image into RGBA
// pixels. dir anchors relative image URIs.
func decodeImage(doc *gltf.Document, dir string, index int) (*image.RGBA, error) {
	data, err := imageBytes(doc, dir, doc.Images[index])
	if err != nil {
		return nil, errors.Wrapf(err, "image %d", index)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "image %d", index)
	}
	return toRGBA(img), nil
}

func imageBytes(doc *gltf.Document, dir string, src *gltf.Image) ([]byte, error) {
	switch {
	case src.BufferView != nil:
		return viewBytes(doc, *src.BufferView)
	case strings.HasPrefix(src.URI, "data:"):
		comma := strings.IndexByte(src.URI, ',')
		if comma < 0 {
			return nil, errors.New("malformed data URI")
		}
		return base64.StdEncoding.DecodeString(src.URI[comma+1:])
	case src.URI != "":
		data, err := os.ReadFile(filepath.Join(dir, src.URI))
		return data, errors.Wrapf(err, "image file %q", src.URI)
	}
	return nil, errors.New("image has no data source")
}

// viewBytes returns the raw bytes a buffer view spans, bounds-checked
// against its buffer.
func viewBytes(doc *gltf.Document, index uint32) ([]byte, error) {
	if int(index) >= len(doc.BufferViews) {
		return nil, errors.Errorf("buffer view %d out of range (%d views)", index, len(doc.BufferViews))
	}
	view := doc.BufferViews[index]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, errors.Errorf("buffer %d out of range (%d buffers)", view.Buffer, len(doc.Buffers))
	}
	data := doc.Buffers[view.Buffer].Data
	end := int(view.ByteOffset) + int(view.ByteLength)
	if end > len(data) {
		return nil, errors.Errorf("buffer view %d ends at %d, buffer holds %d bytes", index, end, len(data))
	}
	return data[view.ByteOffset:end], nil
}

// toRGBA converts any decoded image to 4-channel RGBA. Sources
// without an alpha channel come out fully opaque.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

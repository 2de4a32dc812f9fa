package camera

import (
	"errors"
	"fmt"
	"image"
	// Frame formats produced by capture tools.
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder turns one frame into the text of the code it shows.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

type zxingDecoder struct {
	readers []gozxing.Reader
}

// NewDecoder returns a decoder that tries QR first, then Code 128.
func NewDecoder() Decoder {
	return &zxingDecoder{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewCode128Reader(),
		},
	}
}

// Decode returns ErrNoCode when no reader finds a code. A non "not found"
// failure of the primary reader is returned as is so the caller can surface it.
func (d *zxingDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}
	var primary error
	for i, r := range d.readers {
		res, err := r.Decode(bmp, nil)
		r.Reset()
		if err == nil {
			return res.GetText(), nil
		}
		if i == 0 && !isNotFound(err) {
			primary = err
		}
	}
	if primary != nil {
		return "", fmt.Errorf("decode frame: %w", primary)
	}
	return "", ErrNoCode
}

// DecodeFile reads an image file and decodes it.
func DecodeFile(d Decoder, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("read frame %s: %w", path, err)
	}
	return d.Decode(img)
}

func isNotFound(err error) bool {
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}

package maskbrush

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

	"github.com/esimov/maskbrush/utils"
	"golang.org/x/image/bmp"

	_ "image/gif"
)

// ErrUnsupportedFormat is returned when an image is encoded to an unknown file type.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DecodeRaster decodes a PNG, JPEG, GIF or BMP stream into a new raster.
func DecodeRaster(r io.Reader) (*Raster, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image: %w", err)
	}
	res := RasterFromImage(img)
	if res == nil {
		return nil, errors.New("the image has no pixels")
	}
	return res, nil
}

// decodeFile decodes an image file, checking its content type first.
func decodeFile(file *os.File) (*Raster, error) {
	if fi, err := file.Stat(); err == nil && !fi.Mode().IsRegular() {
		return DecodeRaster(file)
	}
	ctype, err := utils.DetectContentType(file)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(ctype, "image") {
		return nil, utils.ErrNotImage
	}
	return DecodeRaster(file)
}

// Encode writes img to w. The format follows the extension of w when it is
// a file; any other writer receives PNG so the alpha channel survives.
func Encode(w io.Writer, img image.Image) error {
	ext := ".png"
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		ext = strings.ToLower(filepath.Ext(f.Name()))
	}
	return encodeAs(w, img, ext)
}

func encodeAs(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "", ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case ".bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// SaveFile encodes img into the named file, creating or truncating it.
func SaveFile(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	if err := encodeAs(f, img, strings.ToLower(filepath.Ext(path))); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == strings.ToLower(ext) {
			return true
		}
	}
	return false
}

package maskbrush

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/esimov/maskbrush/utils"
	pigo "github.com/esimov/pigo/core"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCascade is returned for a face classifier which cannot be unpacked.
var ErrInvalidCascade = errors.New("invalid cascade classifier")

// Region is a circular area of interest in native canvas coordinates.
type Region struct {
	Center Point
	Radius float64
	Score  float32
}

// FaceSeeder detects faces in a photo and pre-seeds the canvas with them,
// so the usual subject of a mask is painted before the first stroke.
type FaceSeeder struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	// Angle detects plane rotated faces, in the [0, 1] range of a full turn.
	Angle float64
	// IoUThreshold is the intersection over union above which detections merge.
	IoUThreshold float64
	// MinScore discards the clusters with a lower detection score.
	MinScore float32
	// Padding enlarges the detected radius by the given factor.
	Padding float64

	classifier *pigo.Pigo
}

// NewFaceSeeder unpacks a pigo cascade classifier.
func NewFaceSeeder(cascade []byte) (fs *FaceSeeder, err error) {
	// header(8) + tree depth(4) + tree count(4)
	if len(cascade) < 16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCascade, len(cascade))
	}
	if binary.LittleEndian.Uint32(cascade[12:16]) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidCascade)
	}

	// Unpack indexes the packet without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			fs, err = nil, fmt.Errorf("%w: %v", ErrInvalidCascade, r)
		}
	}()
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}

	return &FaceSeeder{
		MinSize:      20,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		Padding:      1.2,
		classifier:   classifier,
	}, nil
}

// LoadFaceSeeder reads the cascade classifier from a file.
func LoadFaceSeeder(path string) (*FaceSeeder, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	return NewFaceSeeder(cascade)
}

// Detect returns the face regions found in img, in the coordinates of img.
func (fs *FaceSeeder) Detect(img image.Image) (regions []Region, err error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			regions, err = nil, fmt.Errorf("face detection failed: %v", r)
		}
	}()

	src := imgToNRGBA(img)
	cols, rows := src.Rect.Dx(), src.Rect.Dy()

	maxSize := fs.MaxSize
	if maxSize <= 0 {
		maxSize = utils.Max(cols, rows)
	}
	cParams := pigo.CascadeParams{
		MinSize:     utils.Max(fs.MinSize, 1),
		MaxSize:     maxSize,
		ShiftFactor: fs.ShiftFactor,
		ScaleFactor: utils.Max(fs.ScaleFactor, 1.01),

		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains the row, column, scale and score of every detection.
	dets := fs.classifier.RunCascade(cParams, fs.Angle)
	dets = fs.classifier.ClusterDetections(dets, fs.IoUThreshold)

	padding := fs.Padding
	if padding <= 0 {
		padding = 1
	}
	for _, d := range dets {
		if d.Q < fs.MinScore {
			continue
		}
		regions = append(regions, Region{
			Center: Pt(float64(d.Col), float64(d.Row)),
			Radius: float64(d.Scale) / 2 * padding,
			Score:  d.Q,
		})
	}

	Logger().WithFields(logrus.Fields{
		"width":  cols,
		"height": rows,
		"faces":  len(regions),
	}).Debug("maskbrush: face detection done")

	return regions, nil
}

// Seed detects the faces of photo and paints them on c as a single stroke.
// The regions are scaled from the photo size to the canvas working size.
func (fs *FaceSeeder) Seed(c *Canvas, photo image.Image) (int, error) {
	regions, err := fs.Detect(photo)
	if err != nil {
		return 0, err
	}
	if photo != nil {
		regions = ScaleRegions(regions, ViewTransform{Native: c.Size(), Display: photo.Bounds().Size()})
	}
	return c.SeedRegions(regions), nil
}

// ScaleRegions maps regions through vt.
func ScaleRegions(regions []Region, vt ViewTransform) []Region {
	res := make([]Region, 0, len(regions))
	for _, r := range regions {
		res = append(res, Region{
			Center: vt.Map(r.Center),
			Radius: vt.ScaleWidth(r.Radius),
			Score:  r.Score,
		})
	}
	return res
}

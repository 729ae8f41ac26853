// Package loader reads raw and TIFF height files and serves them as a
// height source for patch generation.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// ErrBadSize is returned when the sample layout cannot be inferred from the file.
var ErrBadSize = errors.New("cannot infer height file dimensions")

// Loader holds a square height field in memory. Raw files carry no header:
// the sample size and bit depth come from the extension and the file size.
type Loader struct {
	path  string
	size  int // samples per edge
	bpp   int // bytes per sample, 0 for decoded images
	span  float64
	field []float32 // normalized heights, row major (z * size + x)
}

// Open reads the file at path. Supported layouts:
//   - .r16: little endian uint16
//   - .r32: little endian float32
//   - .tif/.tiff: grayscale image
//   - anything else: 1..4 bytes per sample, picked by trial division
func Open(path string) (*Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tif" || ext == ".tiff" {
		return openTIFF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open height file %s: %w", path, err)
	}

	bpp, size, ok := guessSize(path, len(data))
	if !ok {
		return nil, fmt.Errorf("%s: %d bytes: %w", path, len(data), ErrBadSize)
	}

	l := &Loader{path: path, size: size, bpp: bpp, span: 1, field: make([]float32, size*size)}
	for i := range l.field {
		l.field[i] = decodeSample(data[i*bpp:(i+1)*bpp], ext)
	}
	return l, nil
}

func openTIFF(path string) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open height file %s: %w", path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() || b.Dx() == 0 {
		return nil, fmt.Errorf("%s: %dx%d image: %w", path, b.Dx(), b.Dy(), ErrBadSize)
	}

	size := b.Dx()
	l := &Loader{path: path, size: size, span: 1, field: make([]float32, size*size)}
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			var v uint16
			if g, ok := img.(*image.Gray16); ok {
				v = g.Gray16At(b.Min.X+x, b.Min.Y+z).Y
			} else {
				v = color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+z)).(color.Gray16).Y
			}
			l.field[z*size+x] = float32(v) / math.MaxUint16
		}
	}
	return l, nil
}

// guessSize infers bytes per sample and edge length for a square raw file.
func guessSize(path string, filesize int) (bpp, size int, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".r16":
		bpp = 2
	case ".r32":
		bpp = 4
	}

	if bpp != 0 {
		size = isqrt(filesize / bpp)
	} else {
		for bpp = 1; bpp <= 4; bpp++ {
			size = isqrt(filesize / bpp)
			if size*size*bpp == filesize {
				break
			}
		}
		if bpp > 4 {
			bpp = 4
		}
	}

	return bpp, size, size > 0 && size*size*bpp == filesize
}

func isqrt(n int) int {
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func decodeSample(b []byte, ext string) float32 {
	switch len(b) {
	case 1:
		return float32(b[0]) / math.MaxUint8
	case 2:
		return float32(binary.LittleEndian.Uint16(b)) / math.MaxUint16
	case 3:
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		return float32(v) / (1<<24 - 1)
	default:
		if ext == ".r32" {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
		return float32(float64(binary.LittleEndian.Uint32(b)) / math.MaxUint32)
	}
}

// Size returns the number of samples per edge.
func (l *Loader) Size() int { return l.size }

// BytesPerSample returns the raw sample width, 0 for decoded images.
func (l *Loader) BytesPerSample() int { return l.bpp }

// Path returns the file the field was read from.
func (l *Loader) Path() string { return l.path }

// SetSpan sets how many patches one copy of the file covers along each axis.
// The field repeats beyond that.
func (l *Loader) SetSpan(patches float64) {
	if patches > 0 {
		l.span = patches
	}
}

// Height implements height.Source with bilinear filtering over a tiled field.
// A closed loader reads as flat ground at 0.
func (l *Loader) Height(x, z float64) float64 {
	if l.size == 0 {
		return 0
	}
	fx := x / l.span * float64(l.size)
	fz := z / l.span * float64(l.size)
	x0 := math.Floor(fx)
	z0 := math.Floor(fz)
	tx := fx - x0
	tz := fz - z0

	xi, zi := int(x0), int(z0)
	h00 := l.at(xi, zi)
	h10 := l.at(xi+1, zi)
	h01 := l.at(xi, zi+1)
	h11 := l.at(xi+1, zi+1)

	a := h00 + (h10-h00)*tx
	b := h01 + (h11-h01)*tx
	return a + (b-a)*tz
}

func (l *Loader) at(x, z int) float64 {
	x = wrap(x, l.size)
	z = wrap(z, l.size)
	return float64(l.field[z*l.size+x])
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Close releases the field. The loader must not be closed while a world is
// still sampling it; one that is reads as flat.
func (l *Loader) Close() error {
	l.field = nil
	l.size = 0
	return nil
}

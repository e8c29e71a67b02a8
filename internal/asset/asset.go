// Package asset loads environment maps into renderer environments.
package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	pathpkg "path"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/rollrun/internal/errkind"
	"github.com/tomz197/rollrun/internal/render"
)

// sampleStep bounds how many pixels are averaged per axis.
const sampleStep = 64

// CubeFaces are the conventional cubemap face names, in load order.
var CubeFaces = [6]string{"px.png", "nx.png", "py.png", "ny.png", "pz.png", "nz.png"}

// LoadEnvironment decodes an equirectangular environment image into an
// average tint. Intensity follows the image's mean luminance.
func LoadEnvironment(fsys fs.FS, path string) (*render.Environment, error) {
	var acc accumulator
	if err := acc.addFile(fsys, path); err != nil {
		return nil, err
	}
	return acc.environment(), nil
}

// Load reads the environment at path: a directory holding the six
// CubeFaces, or a single equirectangular image.
func Load(fsys fs.FS, path string) (*render.Environment, error) {
	if fsys == nil {
		return nil, errkind.AssetLoad(path, errors.New("no filesystem"))
	}
	info, err := fs.Stat(fsys, path)
	if err != nil {
		return nil, errkind.AssetLoad(path, err)
	}
	if !info.IsDir() {
		return LoadEnvironment(fsys, path)
	}
	var faces [6]string
	for i, name := range CubeFaces {
		faces[i] = pathpkg.Join(path, name)
	}
	return LoadCube(fsys, faces)
}

// LoadCube decodes the six faces of a cubemap into one environment.
// Any missing or undecodable face fails the whole cube.
func LoadCube(fsys fs.FS, paths [6]string) (*render.Environment, error) {
	var acc accumulator
	for _, p := range paths {
		if err := acc.addFile(fsys, p); err != nil {
			return nil, err
		}
	}
	return acc.environment(), nil
}

// accumulator sums colours in linear RGB.
type accumulator struct {
	r, g, b float64
	n       int
}

func (a *accumulator) addFile(fsys fs.FS, path string) error {
	if fsys == nil {
		return errkind.AssetLoad(path, errors.New("no filesystem"))
	}
	f, err := fsys.Open(path)
	if err != nil {
		return errkind.AssetLoad(path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return errkind.AssetLoad(path, fmt.Errorf("decode: %w", err))
	}

	b := img.Bounds()
	if b.Empty() {
		return errkind.AssetLoad(path, fmt.Errorf("empty %s image", format))
	}
	stepX := max(b.Dx()/sampleStep, 1)
	stepY := max(b.Dy()/sampleStep, 1)
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue // Fully transparent
			}
			r, g, bl := c.LinearRgb()
			a.r += r
			a.g += g
			a.b += bl
			a.n++
		}
	}
	return nil
}

func (a *accumulator) environment() *render.Environment {
	if a.n == 0 {
		return &render.Environment{}
	}
	n := float64(a.n)
	tint := colorful.LinearRgb(a.r/n, a.g/n, a.b/n)
	_, _, l := tint.Hcl()
	return &render.Environment{Tint: tint.Clamped(), Intensity: l}
}

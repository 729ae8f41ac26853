package main

import (
	"errors"
	"image"
	"image/color"
	"os"
	"time"

	"terrainstream/internal/terrain"

	"golang.org/x/image/tiff"
)

// WritePreview saves the heightmap of the patch under the camera as a
// 16-bit grayscale TIFF, border included.
func (s *sim) WritePreview(path string) error {
	hm, err := s.centreHeightmap(2 * time.Second)
	if err != nil {
		return err
	}
	size := s.world.Resolution() + 3
	img := image.NewGray16(image.Rect(0, 0, size, size))
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			img.SetGray16(x, z, color.Gray16{Y: hm[z*size+x]})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// centreHeightmap waits for the camera patch of LOD 0 to finish loading.
func (s *sim) centreHeightmap(timeout time.Duration) ([]uint16, error) {
	deadline := time.Now().Add(timeout)
	for {
		ax, az := s.world.Anchor(0)
		for _, p := range s.world.Patches(0) {
			if p.Assigned && p.X == ax && p.Z == az {
				if hm, ok := s.world.Heightmap(p.ID); ok {
					return hm, nil
				}
			}
		}
		if time.Now().After(deadline) {
			return nil, errors.New("centre patch did not finish loading")
		}
		if s.cfg.Worker.Mode == "inline" {
			if err := s.world.Update(terrain.UpdateParams{View: s.view(), Proj: s.proj}); err != nil {
				return nil, err
			}
		} else {
			s.world.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	}
}

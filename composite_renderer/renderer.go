package composite_renderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

type rendererImpl struct {
	gutter     int
	background color.Color
}

type Config struct {
	// Gutter is the gap in pixels between neighbouring tiles.
	Gutter     int
	Background color.Color
}

func New(cfg Config) (Renderer, error) {
	if cfg.Gutter < 0 {
		return nil, errors.New("negative gutter")
	}

	if cfg.Background == nil {
		cfg.Background = color.Black
	}

	return &rendererImpl{
		gutter:     cfg.Gutter,
		background: cfg.Background,
	}, nil
}

// TileImages lays the images out left to right in input order, top aligned,
// and encodes the strip as PNG.
func (r *rendererImpl) TileImages(imageBufs []*bytes.Buffer) (*bytes.Buffer, error) {
	if len(imageBufs) == 0 {
		return nil, errors.New("no images to tile")
	}

	images := make([]image.Image, len(imageBufs))

	totalWidth := r.gutter * (len(imageBufs) - 1)
	maxHeight := 0

	for i, buf := range imageBufs {
		if buf == nil {
			return nil, errors.New("missing image buffer")
		}

		img, _, err := image.Decode(buf)
		if err != nil {
			return nil, err
		}

		images[i] = img

		bounds := img.Bounds()
		totalWidth += bounds.Dx()

		if bounds.Dy() > maxHeight {
			maxHeight = bounds.Dy()
		}
	}

	retImage := image.NewRGBA(image.Rect(0, 0, totalWidth, maxHeight))

	draw.Draw(retImage, retImage.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)

	offsetX := 0

	for _, img := range images {
		bounds := img.Bounds()
		target := image.Rect(offsetX, 0, offsetX+bounds.Dx(), bounds.Dy())

		draw.Draw(retImage, target, img, bounds.Min, draw.Over)

		offsetX += bounds.Dx() + r.gutter
	}

	imageBuf := new(bytes.Buffer)

	err := png.Encode(imageBuf, retImage)
	if err != nil {
		return nil, err
	}

	return imageBuf, nil
}

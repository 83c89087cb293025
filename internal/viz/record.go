package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	glyphW = 8
	glyphH = 16
)

// Recorder turns successive canvas frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

// Capture rasterizes the canvas braille dots, ignoring the label overlay.
func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*glyphW, c.Height*glyphH), color.Palette{color.Black, color.White})
	dotW, dotH := glyphW/2, glyphH/4
	w, h := c.PixelSize()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *Recorder) Len() int { return len(r.frames) }

// Save writes the captured frames to path and drops them.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r.frames = nil
	return gif.EncodeAll(f, &anim)
}

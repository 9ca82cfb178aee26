// Package render draws game snapshots to images.
package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-torus/memimg"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// StatusBarHeight is the strip below the board used for the score line.
const StatusBarHeight = 20

// Sprites looks up cell images by name ("snake", "apple", "obstacle").
type Sprites interface {
	Get(name string) (image.Image, bool)
}

type layer struct {
	sprite  string
	r, g, b float64
	cells   []structs.Cell
}

// StatusText is the line shown under the board.
func StatusText(snap structs.Snapshot) string {
	switch {
	case !snap.IsAlive:
		return fmt.Sprintf("Game Over. Your score: %d", snap.Score)
	case snap.IsStopped:
		// 蛇还活着但新苹果放不下
		return fmt.Sprintf("Board full. Your score: %d", snap.Score)
	case snap.IsPaused:
		return "PAUSE"
	}
	return fmt.Sprintf("Score: %d", snap.Score)
}

// Draw renders snap onto a new context. sprites may be nil, in which case
// cells are drawn as colored squares.
func Draw(snap structs.Snapshot, blockSize int, sprites Sprites) *gg.Context {
	width := snap.Width * blockSize
	height := snap.Height * blockSize
	dc := gg.NewContext(width, height+StatusBarHeight)

	dc.SetRGB(1, 1, 1)
	dc.Clear()
	renderGrid(dc, width, height, blockSize)

	snakeSprite := "snake"
	if !snap.IsAlive {
		snakeSprite += memimg.BlurSuffix
	}
	layers := []layer{
		{sprite: "obstacle", r: 0.5, g: 0.5, b: 0.5, cells: snap.ObstacleCells},
		{sprite: "apple", r: 1, g: 0, b: 0, cells: snap.AppleCells},
		{sprite: snakeSprite, r: 0, g: 0.8, b: 0, cells: snap.SnakeCells},
	}
	for _, l := range layers {
		drawLayer(dc, snap, l, blockSize, sprites)
	}

	dc.SetRGB(0.15, 0.15, 0.15)
	dc.DrawRectangle(0, float64(height), float64(width), StatusBarHeight)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(StatusText(snap), 6, float64(height)+StatusBarHeight/2, 0, 0.5)
	return dc
}

func drawLayer(dc *gg.Context, snap structs.Snapshot, l layer, blockSize int, sprites Sprites) {
	var img image.Image
	if sprites != nil {
		img, _ = sprites.Get(l.sprite)
	}
	for _, c := range l.cells {
		// 回绕时可能短暂出现在棋盘外的格子，不画
		if c.X < 0 || c.X >= snap.Width || c.Y < 0 || c.Y >= snap.Height {
			continue
		}
		x, y := c.X*blockSize, c.Y*blockSize
		if img != nil {
			dc.DrawImage(img, x, y)
			continue
		}
		dc.SetRGB(l.r, l.g, l.b)
		dc.DrawRectangle(float64(x), float64(y), float64(blockSize), float64(blockSize))
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}

// SavePNG draws snap and writes it to fileName, creating parent directories.
func SavePNG(snap structs.Snapshot, blockSize int, sprites Sprites, fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return Draw(snap, blockSize, sprites).SavePNG(fileName)
}

package api

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-classic/memimg"
	"github.com/hoshinonyaruko/snake-classic/structs"
)

// DrawBoard 把一帧快照画成图片，每个格子 tiles.BlockSize() 像素
func DrawBoard(snap structs.Snapshot, tiles *memimg.Store) image.Image {
	blockSize := tiles.BlockSize()
	canvas := snap.BoardSize * blockSize
	dc := gg.NewContext(canvas, canvas)

	renderBackground(dc, tiles, canvas)
	renderGrid(dc, canvas, canvas, blockSize)
	if snap.Boundary == structs.BoundaryWalls {
		renderWalls(dc, snap.BoardSize, blockSize)
	}

	if snap.GameOver {
		renderGameOver(dc, snap, canvas)
		return dc.Image()
	}

	renderSnake(dc, snap.Snake, tiles, blockSize)
	renderFood(dc, snap.Food, tiles, blockSize)
	renderScore(dc, snap.Score)
	return dc.Image()
}

func renderBackground(dc *gg.Context, tiles *memimg.Store, canvas int) {
	if bg, found := tiles.Background(canvas, canvas); found {
		dc.DrawImage(bg, 0, 0)
		return
	}
	dc.SetRGB(0, 0, 0)
	dc.Clear()
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.15, 0.15, 0.15)
	dc.SetLineWidth(1)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}

// 边界环画成灰色的墙
func renderWalls(dc *gg.Context, boardSize, blockSize int) {
	dc.SetRGB(0.3, 0.3, 0.3)
	for i := 0; i < boardSize; i++ {
		for _, c := range []structs.Cell{{X: i, Y: 0}, {X: i, Y: boardSize - 1}, {X: 0, Y: i}, {X: boardSize - 1, Y: i}} {
			dc.DrawRectangle(float64(c.X*blockSize), float64(c.Y*blockSize), float64(blockSize), float64(blockSize))
		}
	}
	dc.Fill()
}

func renderSnake(dc *gg.Context, cells []structs.Cell, tiles *memimg.Store, blockSize int) {
	for i, c := range cells {
		name := memimg.TileBody
		if i == 0 {
			name = memimg.TileHead
		}
		if img, found := tiles.Get(name); found {
			dc.DrawImage(img, c.X*blockSize, c.Y*blockSize)
			continue
		}
		// 没有贴图时用红色方块加绿色边框
		drawTile(dc, c, blockSize, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	}
}

func renderFood(dc *gg.Context, food structs.Cell, tiles *memimg.Store, blockSize int) {
	if img, found := tiles.Get(memimg.TileFood); found {
		dc.DrawImage(img, food.X*blockSize, food.Y*blockSize)
		return
	}
	drawTile(dc, food, blockSize, [3]float64{1, 1, 0}, [3]float64{0, 0, 0})
}

func drawTile(dc *gg.Context, c structs.Cell, blockSize int, fill, border [3]float64) {
	x, y, s := float64(c.X*blockSize), float64(c.Y*blockSize), float64(blockSize)
	dc.SetRGB(fill[0], fill[1], fill[2])
	dc.DrawRectangle(x, y, s, s)
	dc.Fill()
	dc.SetRGB(border[0], border[1], border[2])
	dc.SetLineWidth(1)
	dc.DrawRectangle(x+0.5, y+0.5, s-1, s-1)
	dc.Stroke()
}

func renderScore(dc *gg.Context, score int) {
	dc.SetRGB(1, 0, 0)
	dc.DrawString(fmt.Sprintf("Score:%d", score), 10, 20)
}

func renderGameOver(dc *gg.Context, snap structs.Snapshot, canvas int) {
	mid := float64(canvas) / 2
	title := "Game Over"
	if snap.Cleared {
		title = "Board Cleared"
	}
	dc.SetRGB(0, 1, 0)
	dc.DrawStringAnchored(title, mid, mid-10, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Your Score: %d", snap.Score), mid, mid+20, 0.5, 0.5)
	dc.DrawStringAnchored("Press Enter to Start Game", mid, mid+50, 0.5, 0.5)
}

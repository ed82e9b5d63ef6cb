// Package terminal is the keyboard-driven tcell front end: it draws every
// snapshot the clock publishes and turns key presses into clock input.
package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-classic/structs"
	"github.com/rs/zerolog"
)

// Game 是终端需要的时钟接口
type Game interface {
	OnDirectionInput(structs.Direction) bool
	OnRestartInput() bool
	Snapshot() structs.Snapshot
}

// Action 是一次按键对应的操作
type Action int

const (
	ActionNone Action = iota
	ActionTurn
	ActionRestart
	ActionQuit
)

var (
	styleBoard = tcell.StyleDefault.Background(tcell.ColorBlack)
	styleWall  = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	styleHead  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack)
	styleBody  = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorBlack)
	styleFood  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack)
	styleText  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleOver  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

const (
	cellRune = '█'
	wallRune = '▒'
	boardTop = 1 // 第 0 行显示分数
)

// Shell 同时是 clock.Renderer 和键盘输入循环
type Shell struct {
	screen tcell.Screen
	log    zerolog.Logger

	mu sync.Mutex // Render 和窗口缩放可能同时画屏
}

// New 使用已经 Init 过的 screen
func New(screen tcell.Screen, log zerolog.Logger) *Shell {
	return &Shell{screen: screen, log: log}
}

// KeyAction maps a key press to an action and, for turns, a direction.
func KeyAction(ev *tcell.EventKey) (Action, structs.Direction) {
	switch ev.Key() {
	case tcell.KeyUp:
		return ActionTurn, structs.Up
	case tcell.KeyDown:
		return ActionTurn, structs.Down
	case tcell.KeyLeft:
		return ActionTurn, structs.Left
	case tcell.KeyRight:
		return ActionTurn, structs.Right
	case tcell.KeyEnter:
		return ActionRestart, 0
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit, 0
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W', 'k':
			return ActionTurn, structs.Up
		case 's', 'S', 'j':
			return ActionTurn, structs.Down
		case 'a', 'A', 'h':
			return ActionTurn, structs.Left
		case 'd', 'D', 'l':
			return ActionTurn, structs.Right
		case 'q', 'Q':
			return ActionQuit, 0
		}
	}
	return ActionNone, 0
}

// Run 处理键盘事件，直到按下退出键或 ctx 取消
func (s *Shell) Run(ctx context.Context, game Game) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			s.screen.Sync()
			s.redraw(game.Snapshot())
		case *tcell.EventKey:
			action, dir := KeyAction(ev)
			switch action {
			case ActionTurn:
				game.OnDirectionInput(dir)
			case ActionRestart:
				game.OnRestartInput()
			case ActionQuit:
				s.log.Info().Msg("quit requested")
				return nil
			}
		}
	}
}

// Render 由时钟 goroutine 调用
func (s *Shell) Render(snap structs.Snapshot) {
	s.redraw(snap)
}

func (s *Shell) redraw(snap structs.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	if snap.GameOver {
		s.drawGameOver(snap)
	} else {
		s.drawBoard(snap)
		drawText(s.screen, 0, 0, styleText, fmt.Sprintf("Score:%d", snap.Score))
	}
	s.screen.Show()
}

// 每个格子占两列，看起来接近正方形
func (s *Shell) setCell(c structs.Cell, r rune, style tcell.Style) {
	x, y := c.X*2, c.Y+boardTop
	s.screen.SetContent(x, y, r, nil, style)
	s.screen.SetContent(x+1, y, r, nil, style)
}

func (s *Shell) drawBoard(snap structs.Snapshot) {
	n := snap.BoardSize
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := structs.Cell{X: x, Y: y}
			if snap.Boundary == structs.BoundaryWalls && (x == 0 || y == 0 || x == n-1 || y == n-1) {
				s.setCell(c, wallRune, styleWall)
			} else {
				s.setCell(c, ' ', styleBoard)
			}
		}
	}
	s.setCell(snap.Food, cellRune, styleFood)
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		style := styleBody
		if i == 0 {
			style = styleHead
		}
		s.setCell(snap.Snake[i], cellRune, style)
	}
}

func (s *Shell) drawGameOver(snap structs.Snapshot) {
	width := snap.BoardSize * 2
	mid := snap.BoardSize/2 + boardTop
	title := "Game Over"
	if snap.Cleared {
		title = "Board Cleared"
	}
	drawCentered(s.screen, width, mid-1, styleOver, title)
	drawCentered(s.screen, width, mid+1, styleText, fmt.Sprintf("Your Score: %d", snap.Score))
	drawCentered(s.screen, width, mid+3, styleText, "Press Enter to Start Game")
}

func drawCentered(screen tcell.Screen, width, y int, style tcell.Style, text string) {
	x := (width - len(text)) / 2
	if x < 0 {
		x = 0
	}
	drawText(screen, x, y, style, text)
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

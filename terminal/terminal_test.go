package terminal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-classic/structs"
	"github.com/rs/zerolog"
)

type fakeGame struct {
	mu         sync.Mutex
	directions []structs.Direction
	restarts   int
}

func (f *fakeGame) OnDirectionInput(d structs.Direction) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directions = append(f.directions, d)
	return true
}

func (f *fakeGame) OnRestartInput() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	return true
}

func (f *fakeGame) Snapshot() structs.Snapshot {
	return testSnapshot()
}

func (f *fakeGame) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.directions), f.restarts
}

func testSnapshot() structs.Snapshot {
	return structs.Snapshot{
		BoardSize: 20,
		Boundary:  structs.BoundaryWalls,
		Snake:     []structs.Cell{{X: 6, Y: 5}, {X: 5, Y: 5}},
		Food:      structs.Cell{X: 10, Y: 10},
		Score:     7,
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)
	return screen
}

func runeAt(screen tcell.Screen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func rowText(screen tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		b.WriteRune(runeAt(screen, x, y))
	}
	return b.String()
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		ev     *tcell.EventKey
		action Action
		dir    structs.Direction
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), ActionTurn, structs.Up},
		{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), ActionTurn, structs.Down},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionTurn, structs.Left},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), ActionTurn, structs.Right},
		{tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), ActionTurn, structs.Up},
		{tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), ActionTurn, structs.Left},
		{tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), ActionTurn, structs.Down},
		{tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), ActionTurn, structs.Right},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), ActionRestart, 0},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionQuit, 0},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit, 0},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionNone, 0},
	}
	for _, tt := range tests {
		action, dir := KeyAction(tt.ev)
		if action != tt.action || (action == ActionTurn && dir != tt.dir) {
			t.Errorf("%s: got (%d, %s), want (%d, %s)", tt.ev.Name(), action, dir, tt.action, tt.dir)
		}
	}
}

func TestRenderDrawsBoard(t *testing.T) {
	screen := newSimScreen(t)
	shell := New(screen, zerolog.Nop())
	snap := testSnapshot()
	shell.Render(snap)

	if got := rowText(screen, 0, 8); got != "Score:7 " {
		t.Fatalf("expected score line, got %q", got)
	}
	head := snap.Snake[0]
	if r := runeAt(screen, head.X*2, head.Y+boardTop); r != cellRune {
		t.Fatalf("head: got %q", r)
	}
	body := snap.Snake[1]
	if r := runeAt(screen, body.X*2+1, body.Y+boardTop); r != cellRune {
		t.Fatalf("body: got %q", r)
	}
	if r := runeAt(screen, snap.Food.X*2, snap.Food.Y+boardTop); r != cellRune {
		t.Fatalf("food: got %q", r)
	}
	if r := runeAt(screen, 4, 7+boardTop); r != ' ' {
		t.Fatalf("expected empty board cell, got %q", r)
	}
	if r := runeAt(screen, 0, 3+boardTop); r != wallRune {
		t.Fatalf("expected wall on the left edge, got %q", r)
	}
}

func TestRenderGameOver(t *testing.T) {
	screen := newSimScreen(t)
	shell := New(screen, zerolog.Nop())
	snap := testSnapshot()
	snap.GameOver = true
	shell.Render(snap)

	var all strings.Builder
	for y := 0; y < 30; y++ {
		all.WriteString(rowText(screen, y, 80))
		all.WriteByte('\n')
	}
	out := all.String()
	for _, want := range []string{"Game Over", "Your Score: 7", "Press Enter to Start Game"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q on game over screen:\n%s", want, out)
		}
	}
}

func TestRunForwardsKeys(t *testing.T) {
	screen := newSimScreen(t)
	shell := New(screen, zerolog.Nop())
	game := &fakeGame{}

	done := make(chan error, 1)
	go func() { done <- shell.Run(context.Background(), game) }()

	screen.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after escape")
	}

	game.mu.Lock()
	defer game.mu.Unlock()
	if len(game.directions) != 2 || game.directions[0] != structs.Up || game.directions[1] != structs.Left {
		t.Fatalf("unexpected directions %v", game.directions)
	}
	if game.restarts != 1 {
		t.Fatalf("expected one restart, got %d", game.restarts)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	screen := newSimScreen(t)
	shell := New(screen, zerolog.Nop())
	game := &fakeGame{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- shell.Run(ctx, game) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if dirs, restarts := game.counts(); dirs != 0 || restarts != 0 {
		t.Fatalf("unexpected input: %d directions, %d restarts", dirs, restarts)
	}
}

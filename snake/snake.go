// 单人贪食蛇的状态机：移动、增长、碰撞、食物
package snake

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-classic/structs"
)

const (
	// DefaultBoardSize 默认棋盘边长
	DefaultBoardSize = 20
	// MinBoardSize keeps the start cell off the boundary ring.
	MinBoardSize = 7
)

// 每局开始时蛇头的位置
var startCell = structs.Cell{X: 5, Y: 5}

// NoFood 是棋盘被填满后食物的位置，不在棋盘上
var NoFood = structs.Cell{X: -1, Y: -1}

// GameState 持有一局游戏的全部可变状态。
// 它不是并发安全的，只能由一个 goroutine（通常是 clock.Clock）持有并修改。
type GameState struct {
	size     int
	boundary structs.BoundaryMode
	rng      *rand.Rand

	roundID   string
	tick      uint64
	snake     []structs.Cell // 第一个元素是蛇头
	food      structs.Cell
	direction structs.Direction
	score     int
	gameOver  bool
	cleared   bool
}

// Option 配置 GameState
type Option func(*GameState)

// WithBoundary 设置边界模式，默认是墙
func WithBoundary(mode structs.BoundaryMode) Option {
	return func(g *GameState) {
		g.boundary = mode
	}
}

// WithRand sets the random source used for food placement.
func WithRand(r *rand.Rand) Option {
	return func(g *GameState) {
		g.rng = r
	}
}

// New 创建一个已经初始化好的游戏状态
func New(size int, opts ...Option) (*GameState, error) {
	if size < MinBoardSize {
		return nil, fmt.Errorf("board size %d is smaller than %d", size, MinBoardSize)
	}
	g := &GameState{
		size:     size,
		boundary: structs.BoundaryWalls,
	}
	for _, opt := range opts {
		opt(g)
	}
	switch g.boundary {
	case structs.BoundaryWalls, structs.BoundaryWrap:
	default:
		return nil, fmt.Errorf("unknown boundary mode %q", g.boundary)
	}
	if g.rng == nil {
		seed := uint64(time.Now().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	g.Initialize()
	return g, nil
}

// Initialize 重置为一局新游戏：蛇只有 (5,5) 一个格子，向右，0 分
func (g *GameState) Initialize() {
	g.snake = []structs.Cell{startCell}
	g.direction = structs.Right
	g.score = 0
	g.tick = 0
	g.gameOver = false
	g.cleared = false
	g.roundID = uuid.NewString()
	// 只有一个格子时内部空位一定存在
	g.food, _ = g.GenerateFood()
}

// SetDirection 改变下一步的方向。
// 与当前方向相反的输入会被忽略，返回值表示输入是否被接受。
func (g *GameState) SetDirection(d structs.Direction) bool {
	if g.gameOver || !d.Valid() {
		return false
	}
	if d == g.direction.Opposite() {
		return false
	}
	g.direction = d
	return true
}

// Step 按当前方向走一步，返回走完之后是否结束
func (g *GameState) Step() bool {
	if g.gameOver {
		return true
	}

	newHead := g.nextHead()
	g.tick++

	// 新蛇头放到最前面
	g.snake = append(g.snake, structs.Cell{})
	copy(g.snake[1:], g.snake)
	g.snake[0] = newHead

	if newHead == g.food {
		// 吃到食物，不去掉尾巴
		g.score++
		food, ok := g.GenerateFood()
		if !ok {
			g.food = NoFood
			g.cleared = true
			g.gameOver = true
			return true
		}
		g.food = food
	} else {
		g.snake = g.snake[:len(g.snake)-1]
	}

	if g.CheckCollision() {
		g.gameOver = true
	}
	return g.gameOver
}

func (g *GameState) nextHead() structs.Cell {
	head := g.snake[0]
	x, y := head.X, head.Y

	// 根据方向计算新头部位置
	switch g.direction {
	case structs.Up:
		y--
	case structs.Down:
		y++
	case structs.Left:
		x--
	case structs.Right:
		x++
	default:
		panic(fmt.Sprintf("snake: unexpected direction %d", int(g.direction)))
	}

	if g.boundary == structs.BoundaryWrap {
		x, y = WrapPosition(x, y, g.size, g.size)
	}
	return structs.Cell{X: x, Y: y}
}

// WrapPosition 把越界的坐标绕回到棋盘另一边
func WrapPosition(x, y, width, height int) (int, int) {
	if x < 0 {
		x += width
	} else if x >= width {
		x -= width
	}
	if y < 0 {
		y += height
	} else if y >= height {
		y -= height
	}
	return x, y
}

// CheckCollision 只查询，不修改状态：蛇头咬到自己或者撞到边界
func (g *GameState) CheckCollision() bool {
	head := g.snake[0]
	for _, bodyPart := range g.snake[1:] {
		if bodyPart == head {
			return true
		}
	}
	return g.hitsBoundary(head)
}

func (g *GameState) hitsBoundary(head structs.Cell) bool {
	if g.boundary == structs.BoundaryWrap {
		// 回绕之后 x、y 不会等于 size，这两个判断只在手动摆放时生效
		return head.X == 0 || head.X == g.size || head.Y == 0 || head.Y == g.size
	}
	return OnRing(head, g.size) || head.X < 0 || head.Y < 0 || head.X >= g.size || head.Y >= g.size
}

// GenerateFood 在所有空闲且不在边界环上的格子里均匀随机选一个。
// 没有可选格子时返回 false。
func (g *GameState) GenerateFood() (structs.Cell, bool) {
	occupied := make(map[structs.Cell]struct{}, len(g.snake))
	for _, c := range g.snake {
		occupied[c] = struct{}{}
	}

	free := make([]structs.Cell, 0, (g.size-2)*(g.size-2))
	for y := 1; y < g.size-1; y++ {
		for x := 1; x < g.size-1; x++ {
			c := structs.Cell{X: x, Y: y}
			if _, taken := occupied[c]; !taken {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return structs.Cell{}, false
	}
	return free[g.rng.IntN(len(free))], true
}

// OnRing reports whether c lies on the outermost row or column of a size×size board.
func OnRing(c structs.Cell, size int) bool {
	return c.X == 0 || c.X == size-1 || c.Y == 0 || c.Y == size-1
}

// Snapshot 复制一份当前状态给渲染端
func (g *GameState) Snapshot() structs.Snapshot {
	cells := make([]structs.Cell, len(g.snake))
	copy(cells, g.snake)
	return structs.Snapshot{
		RoundID:   g.roundID,
		Tick:      g.tick,
		BoardSize: g.size,
		Boundary:  g.boundary,
		Snake:     cells,
		Food:      g.food,
		Direction: g.direction,
		Score:     g.score,
		GameOver:  g.gameOver,
		Cleared:   g.cleared,
	}
}

func (g *GameState) Size() int                      { return g.size }
func (g *GameState) Boundary() structs.BoundaryMode { return g.boundary }
func (g *GameState) RoundID() string                { return g.roundID }
func (g *GameState) Direction() structs.Direction   { return g.direction }
func (g *GameState) Score() int                     { return g.score }
func (g *GameState) GameOver() bool                 { return g.gameOver }
func (g *GameState) Cleared() bool                  { return g.cleared }
func (g *GameState) Food() structs.Cell             { return g.food }
func (g *GameState) Len() int                       { return len(g.snake) }
func (g *GameState) Head() structs.Cell             { return g.snake[0] }

// Package clock drives a snake.GameState on a fixed period and serialises
// player input onto the same goroutine.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hoshinonyaruko/snake-classic/snake"
	"github.com/hoshinonyaruko/snake-classic/structs"
	"github.com/rs/zerolog"
)

// DefaultPeriod 默认每 150 毫秒走一步
const DefaultPeriod = 150 * time.Millisecond

const queueSize = 64

// Renderer 接收每一帧的快照。它在时钟的 goroutine 上同步调用，不能阻塞。
type Renderer interface {
	Render(structs.Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(structs.Snapshot)

func (f RendererFunc) Render(s structs.Snapshot) { f(s) }

type intentKind int

const (
	intentDirection intentKind = iota
	intentRestartInput
	intentStart
	intentStop
	intentRestart
)

func (k intentKind) String() string {
	switch k {
	case intentDirection:
		return "direction"
	case intentRestartInput:
		return "restart-input"
	case intentStart:
		return "start"
	case intentStop:
		return "stop"
	case intentRestart:
		return "restart"
	}
	return "unknown"
}

type intent struct {
	kind intentKind
	dir  structs.Direction
}

// Clock 独占 GameState：所有修改都发生在 Run 所在的 goroutine 上。
type Clock struct {
	state     *snake.GameState
	period    time.Duration
	renderers []Renderer
	log       zerolog.Logger
	intents   chan intent

	running atomic.Bool

	mu   sync.RWMutex
	last structs.Snapshot

	ticker *time.Ticker // 只在 Run 里使用
}

// Option 配置 Clock
type Option func(*Clock)

// WithPeriod 设置步进周期
func WithPeriod(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.period = d
		}
	}
}

// WithLogger 设置日志器
func WithLogger(log zerolog.Logger) Option {
	return func(c *Clock) {
		c.log = log
	}
}

// WithRenderer 注册渲染端，按注册顺序调用
func WithRenderer(r ...Renderer) Option {
	return func(c *Clock) {
		c.renderers = append(c.renderers, r...)
	}
}

// New creates a clock that owns state. The clock starts in the running
// state unless the round is already over.
func New(state *snake.GameState, opts ...Option) *Clock {
	c := &Clock{
		state:   state,
		period:  DefaultPeriod,
		log:     zerolog.Nop(),
		intents: make(chan intent, queueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.running.Store(!state.GameOver())
	c.last = state.Snapshot()
	return c
}

// Run 是时钟的主循环，ctx 取消时返回 ctx.Err()
func (c *Clock) Run(ctx context.Context) error {
	c.ticker = time.NewTicker(c.period)
	defer c.ticker.Stop()
	if !c.running.Load() {
		c.ticker.Stop()
	}

	c.log.Info().
		Dur("period", c.period).
		Str("round", c.state.RoundID()).
		Msg("clock started")
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("clock stopped")
			return ctx.Err()
		case in := <-c.intents:
			c.apply(in)
		case <-c.ticker.C:
			c.tick()
		}
	}
}

func (c *Clock) tick() {
	// 已经排队的输入先生效，再走这一步
	c.drain()
	if !c.running.Load() {
		return
	}
	c.state.Step()
	over := c.state.CheckCollision() || c.state.GameOver()
	if over {
		c.halt()
	}
	c.publish()

	if over {
		c.log.Info().
			Str("round", c.state.RoundID()).
			Int("score", c.state.Score()).
			Bool("cleared", c.state.Cleared()).
			Msg("game over")
	}
}

// drain applies every queued intent in arrival order without blocking.
func (c *Clock) drain() {
	for {
		select {
		case in := <-c.intents:
			c.apply(in)
		default:
			return
		}
	}
}

func (c *Clock) apply(in intent) {
	switch in.kind {
	case intentDirection:
		accepted := c.state.SetDirection(in.dir)
		c.log.Debug().
			Stringer("direction", in.dir).
			Bool("accepted", accepted).
			Msg("direction input")
	case intentRestartInput:
		if !c.state.GameOver() {
			c.log.Debug().Msg("restart ignored while running")
			return
		}
		c.restart()
	case intentStart:
		if c.running.Load() || c.state.GameOver() {
			return
		}
		c.resume()
	case intentStop:
		c.halt()
	case intentRestart:
		c.restart()
	default:
		c.log.Error().Stringer("intent", in.kind).Msg("unknown intent")
	}
}

func (c *Clock) restart() {
	c.state.Initialize()
	c.log.Info().Str("round", c.state.RoundID()).Msg("new round")
	c.resume()
	c.publish()
}

func (c *Clock) resume() {
	c.running.Store(true)
	if c.ticker != nil {
		c.ticker.Reset(c.period)
	}
}

func (c *Clock) halt() {
	c.running.Store(false)
	if c.ticker != nil {
		c.ticker.Stop()
	}
}

func (c *Clock) publish() {
	snap := c.state.Snapshot()
	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()
	for _, r := range c.renderers {
		r.Render(snap)
	}
}

func (c *Clock) enqueue(in intent) bool {
	select {
	case c.intents <- in:
		return true
	default:
		c.log.Warn().Stringer("intent", in.kind).Msg("input queue full, dropping")
		return false
	}
}

// Start 恢复计时，游戏结束后无效
func (c *Clock) Start() bool { return c.enqueue(intent{kind: intentStart}) }

// Stop 暂停计时，只有 Start 或 Restart 能恢复
func (c *Clock) Stop() bool { return c.enqueue(intent{kind: intentStop}) }

// Restart 无条件开始新的一局
func (c *Clock) Restart() bool { return c.enqueue(intent{kind: intentRestart}) }

// OnDirectionInput queues a direction change for the next step.
func (c *Clock) OnDirectionInput(d structs.Direction) bool {
	return c.enqueue(intent{kind: intentDirection, dir: d})
}

// OnRestartInput queues a restart; it only takes effect once the round is over.
func (c *Clock) OnRestartInput() bool {
	return c.enqueue(intent{kind: intentRestartInput})
}

// Snapshot 返回最近一次发布的快照，任何 goroutine 都可以调用
func (c *Clock) Snapshot() structs.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Running reports whether the clock is currently stepping the game.
func (c *Clock) Running() bool {
	return c.running.Load()
}

// Period 返回步进周期
func (c *Clock) Period() time.Duration {
	return c.period
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-classic/api"
	"github.com/hoshinonyaruko/snake-classic/clock"
	"github.com/hoshinonyaruko/snake-classic/config"
	"github.com/hoshinonyaruko/snake-classic/logger"
	"github.com/hoshinonyaruko/snake-classic/memimg"
	"github.com/hoshinonyaruko/snake-classic/snake"
	"github.com/hoshinonyaruko/snake-classic/terminal"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize the configuration
	cfg, err := config.LoadConfig("./config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "snake: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// 游戏状态只在这里创建一次，由时钟独占
	state, err := snake.New(cfg.BoardSize, snake.WithBoundary(cfg.BoundaryMode()))
	if err != nil {
		return err
	}
	log.Info().
		Int("board", cfg.BoardSize).
		Str("boundary", cfg.Boundary).
		Str("shell", cfg.Shell).
		Msg("starting")

	switch cfg.Shell {
	case "http":
		return runHTTP(ctx, cfg, state, log)
	default:
		return runTerminal(ctx, cfg, state, log)
	}
}

func newLogger(cfg *config.AppConfig) (zerolog.Logger, io.Closer, error) {
	// 终端模式下日志写文件，不然会把画面打乱
	if cfg.Shell == "terminal" && cfg.LogFile != "" {
		return logger.NewFile(cfg.LogLevel, cfg.LogFile)
	}
	log, err := logger.New(cfg.LogLevel, nil)
	return log, nopCloser{}, err
}

// 输出到 stderr 时没有需要关闭的文件
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func runHTTP(ctx context.Context, cfg *config.AppConfig, state *snake.GameState, log zerolog.Logger) error {
	EnsureFoldersExist(log, cfg.TilesDir)
	// 载入贴图到内存
	tiles := memimg.NewStore(cfg.Blocksize, log)
	if err := tiles.LoadDir(cfg.TilesDir); err != nil {
		log.Warn().Err(err).Msg("load tiles, falling back to flat colours")
	}

	hub := api.NewHub(log)
	defer hub.Close()
	clk := clock.New(state,
		clock.WithPeriod(cfg.TickInterval()),
		clock.WithLogger(log),
		clock.WithRenderer(hub),
	)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(clk, hub, tiles, log)
	log.Info().Str("url", "http://"+cfg.SelfPath+"/render-map").Msg("board image")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(clk.Run(gctx)) })
	g.Go(func() error {
		// 检测并热更新到内存
		if err := tiles.Watch(gctx, cfg.TilesDir); err != nil {
			log.Warn().Err(err).Msg("tile hot reload disabled")
		}
		return nil
	})
	g.Go(func() error { return api.Serve(gctx, cfg.Address(), router, log) })
	return g.Wait()
}

func runTerminal(ctx context.Context, cfg *config.AppConfig, state *snake.GameState, log zerolog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	shell := terminal.New(screen, log)
	clk := clock.New(state,
		clock.WithPeriod(cfg.TickInterval()),
		clock.WithLogger(log),
		clock.WithRenderer(shell),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(clk.Run(gctx)) })
	g.Go(func() error {
		// 按下退出键后停止时钟
		defer cancel()
		return shell.Run(gctx, clk)
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(log zerolog.Logger, folders ...string) {
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				log.Warn().Err(err).Str("folder", folder).Msg("create folder")
				continue
			}
			log.Info().Str("folder", folder).Msg("created folder")
		}
	}
}

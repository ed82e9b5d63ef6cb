package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-classic/memimg"
	"github.com/hoshinonyaruko/snake-classic/structs"
	"github.com/rs/zerolog"
)

// Game 是 HTTP 层需要的时钟接口，clock.Clock 实现了它
type Game interface {
	OnDirectionInput(structs.Direction) bool
	OnRestartInput() bool
	Snapshot() structs.Snapshot
}

type directionQuery struct {
	Direction string `form:"direction" binding:"required,oneof=up down left right"`
}

// NewRouter 注册所有路由
func NewRouter(game Game, hub *Hub, tiles *memimg.Store, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestid.New(), requestLogger(log))

	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(game))
	// 游戏结束后重新开始
	router.GET("/restart", RestartHandler(game))
	// 当前状态
	router.GET("/state", StateHandler(game))
	// 渲染当前帧为 PNG
	router.GET("/render-map", RenderMapHandler(game, tiles))
	// 每一帧推送
	router.GET("/ws", hub.Handler(game))
	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("request_id", requestid.Get(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func UpdateDirection(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q directionQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid query parameter: direction (up, down, left, right)"})
			return
		}
		dir, err := structs.ParseDirection(q.Direction)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		queued := game.OnDirectionInput(dir)
		c.JSON(http.StatusOK, gin.H{"accepted": queued, "direction": dir.String()})
	}
}

func RestartHandler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"queued": game.OnRestartInput()})
	}
}

func StateHandler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, game.Snapshot())
	}
}

func RenderMapHandler(game Game, tiles *memimg.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		img := DrawBoard(game.Snapshot(), tiles)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render map"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

// Serve 监听 addr，ctx 取消后优雅关闭
func Serve(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

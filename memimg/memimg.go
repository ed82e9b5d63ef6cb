// 贴图缓存：启动时从目录载入，之后用 fsnotify 热更新
package memimg

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// 贴图名字（文件名去掉扩展名）
const (
	TileHead       = "head"
	TileBody       = "body"
	TileFood       = "food"
	TileBackground = "background"
)

// Store 保存缩放好的贴图，读写并发安全
type Store struct {
	blockSize int
	log       zerolog.Logger

	mu    sync.RWMutex
	tiles map[string]image.Image
}

// NewStore 创建空的贴图缓存，格子贴图会缩放到 blockSize
func NewStore(blockSize int, log zerolog.Logger) *Store {
	return &Store{
		blockSize: blockSize,
		log:       log,
		tiles:     make(map[string]image.Image),
	}
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func tileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDir 载入目录下所有图片，目录不存在时什么也不做
func (s *Store) LoadDir(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isImage(path) {
			return nil
		}
		return s.loadFile(path)
	})
}

func (s *Store) loadFile(path string) error {
	img, err := LoadImage(path)
	if err != nil {
		return fmt.Errorf("load tile %s: %w", path, err)
	}
	s.Add(tileName(path), img)
	return nil
}

// LoadImage 从文件解码一张图片
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Add 缩放后放进缓存。背景图只做模糊，绘制时再按画布裁剪
func (s *Store) Add(name string, img image.Image) {
	var processed image.Image
	if name == TileBackground {
		processed = imaging.Blur(img, 15)
	} else {
		processed = imaging.Resize(img, s.blockSize, s.blockSize, imaging.Lanczos)
	}
	s.mu.Lock()
	s.tiles[name] = processed
	s.mu.Unlock()
	s.log.Debug().Str("tile", name).Msg("tile loaded")
}

func (s *Store) remove(name string) {
	s.mu.Lock()
	delete(s.tiles, name)
	s.mu.Unlock()
	s.log.Debug().Str("tile", name).Msg("tile removed")
}

// Get 取出一张贴图
func (s *Store) Get(name string) (image.Image, bool) {
	s.mu.RLock()
	img, exists := s.tiles[name]
	s.mu.RUnlock()
	return img, exists
}

// Background returns the blurred background cropped to width×height.
func (s *Store) Background(width, height int) (image.Image, bool) {
	bg, ok := s.Get(TileBackground)
	if !ok {
		return nil, false
	}
	return imaging.Fill(bg, width, height, imaging.Center, imaging.Lanczos), true
}

// BlockSize 返回格子像素大小
func (s *Store) BlockSize() int {
	return s.blockSize
}

// Watch 监听目录变化并热更新贴图，ctx 取消时返回
func (s *Store) Watch(ctx context.Context, directory string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return fmt.Errorf("watch %s: %w", directory, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isImage(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if err := s.loadFile(event.Name); err != nil {
					// 文件可能还没写完，下一次 Write 事件会再试
					s.log.Warn().Err(err).Msg("reload tile")
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				s.remove(tileName(event.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error().Err(err).Msg("tile watcher")
		}
	}
}

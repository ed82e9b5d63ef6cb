package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hoshinonyaruko/snake-classic/structs"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath  string `json:"selfpath" validate:"required"`
	Port      string `json:"port" validate:"required,numeric"`
	Blocksize int    `json:"blocksize" validate:"min=4,max=128"`   // 渲染时每个格子的像素
	BoardSize int    `json:"board_size" validate:"min=7,max=200"`  // 棋盘边长
	TickMS    int    `json:"tick_ms" validate:"min=10,max=10000"`  // 每一步的间隔，毫秒
	Boundary  string `json:"boundary" validate:"oneof=walls wrap"` // 边界模式
	Shell     string `json:"shell" validate:"oneof=terminal http"` // 终端界面或者 HTTP
	TilesDir  string `json:"tiles_dir"`                            // 贴图目录，可为空
	LogLevel  string `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFile   string `json:"log_file"` // 终端模式下日志写到这里
}

var (
	instance *AppConfig
	loadErr  error
	once     sync.Once
	validate = validator.New()
)

// Default returns the settings used when no config file exists.
func Default() *AppConfig {
	return &AppConfig{
		SelfPath:  "localhost:38870",
		Port:      "38870",
		Blocksize: 20,
		BoardSize: 20,
		TickMS:    150,
		Boundary:  string(structs.BoundaryWalls),
		Shell:     "terminal",
		TilesDir:  "./tiles",
		LogLevel:  "info",
		LogFile:   "snake.log",
	}
}

// LoadConfig 只加载一次，之后返回同一个实例
func LoadConfig(filePath string) (*AppConfig, error) {
	once.Do(func() {
		instance, loadErr = Load(filePath)
	})
	return instance, loadErr
}

// Load 读取配置文件，文件不存在时写入默认配置
func Load(filePath string) (*AppConfig, error) {
	cfg := Default()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := loadConfig(filePath, cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filePath, err)
	}
	return cfg, nil
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", filePath, err)
	}
	return nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// TickInterval 返回时钟周期
func (c *AppConfig) TickInterval() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// BoundaryMode 返回边界模式
func (c *AppConfig) BoundaryMode() structs.BoundaryMode {
	return structs.BoundaryMode(c.Boundary)
}

// Address 返回 HTTP 监听地址
func (c *AppConfig) Address() string {
	return ":" + c.Port
}

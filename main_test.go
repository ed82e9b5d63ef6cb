package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoshinonyaruko/snake-classic/config"
	"github.com/rs/zerolog"
)

func TestIgnoreCanceled(t *testing.T) {
	if err := ignoreCanceled(context.Canceled); err != nil {
		t.Fatalf("expected nil for canceled, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreCanceled(boom); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := ignoreCanceled(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEnsureFoldersExist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tiles", "nested")
	EnsureFoldersExist(zerolog.Nop(), "", dir)
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("folder not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", dir)
	}
	// 已存在时不报错
	EnsureFoldersExist(zerolog.Nop(), dir)
}

func TestNewLoggerClosers(t *testing.T) {
	cfg := config.Default()
	cfg.Shell = "http"
	_, closer, err := newLogger(cfg)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close stderr logger: %v", err)
	}

	cfg.Shell = "terminal"
	cfg.LogFile = filepath.Join(t.TempDir(), "snake.log")
	log, closer, err := newLogger(cfg)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	log.Info().Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close file logger: %v", err)
	}
	if data, err := os.ReadFile(cfg.LogFile); err != nil || len(data) == 0 {
		t.Fatalf("expected log output in %s, err=%v", cfg.LogFile, err)
	}
}

package structs

import (
	"fmt"
	"strings"
)

// Cell 描述棋盘上的一个格子坐标。
type Cell struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Direction 蛇的移动方向，只有四个合法值。
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String 返回方向的小写名字（"up", "down", "left", "right"）
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Opposite 返回相反方向，非法方向原样返回
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// ParseDirection 解析 "up"/"down"/"left"/"right"，不区分大小写
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("invalid direction '%s' provided", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BoundaryMode 决定蛇走到棋盘边缘时的行为。
type BoundaryMode string

const (
	// BoundaryWalls 边界环是墙，碰到即结束，移动不回绕
	BoundaryWalls BoundaryMode = "walls"
	// BoundaryWrap 移动按棋盘大小取模回绕，只有 x==0 / y==0 会判死
	BoundaryWrap BoundaryMode = "wrap"
)

// Snapshot 是一帧的只读拷贝，交给渲染端使用。
type Snapshot struct {
	RoundID   string       `json:"round_id"`   // 本局标识，重新开始后变化
	Tick      uint64       `json:"tick"`       // 本局已经走过的步数
	BoardSize int          `json:"board_size"` // 棋盘边长
	Boundary  BoundaryMode `json:"boundary"`   // 边界模式
	Snake     []Cell       `json:"snake"`      // 蛇身，第一个是头
	Food      Cell         `json:"food"`       // 食物位置，棋盘填满后为 (-1,-1)
	Direction Direction    `json:"direction"`  // 当前方向
	Score     int          `json:"score"`      // 得分
	GameOver  bool         `json:"game_over"`  // 是否结束
	Cleared   bool         `json:"cleared"`    // 棋盘已被蛇填满
}

// Head returns the first snake cell, or the zero Cell for an empty snapshot.
func (s Snapshot) Head() Cell {
	if len(s.Snake) == 0 {
		return Cell{}
	}
	return s.Snake[0]
}

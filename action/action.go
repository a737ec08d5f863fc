// Package action は smartcab の車両が1ティックで選べる行動を定義します。
package action

import (
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("Actionエラー: 未知の行動です")

type Action string

const (
	None    Action = "none"
	Forward Action = "forward"
	Left    Action = "left"
	Right   Action = "right"
)

type Actions []Action

// All は方策が走査する固定順。順番を変えると同値時の挙動が変わる。
var All = Actions{None, Forward, Left, Right}

// Moves は None を除いた実際に移動する行動。
var Moves = Actions{Forward, Left, Right}

func Parse(s string) (Action, error) {
	for _, a := range All {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func (a Action) String() string {
	return string(a)
}

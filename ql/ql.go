// Package ql は表形式のQ学習 (Qテーブル・ε-greedy方策・1ステップTD更新) を提供します。
//
// Package ql implements tabular Q-learning: a sparse Q table with optimistic
// defaults, an epsilon-greedy policy and a one-step temporal-difference learner.
package ql

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidAlpha    = errors.New("Configエラー: Alpha は [0, 1] の範囲である必要があります")
	ErrInvalidGamma    = errors.New("Configエラー: Gamma は [0, 1] の範囲である必要があります")
	ErrInvalidEpsilon  = errors.New("Configエラー: Epsilon は [0, 1] の範囲である必要があります")
	ErrInvalidDefaultQ = errors.New("Configエラー: DefaultQ は正の有限値である必要があります")
	ErrEmptyActions    = errors.New("行動エラー: 行動が1つもありません")
	ErrNilTable        = errors.New("Tableエラー: nilです")
	ErrNilSource       = errors.New("乱数エラー: Source が nil です")
)

// UpdateQ は q を reward + discountRate*nextQ の方向へ lr の割合だけ近づける。
func UpdateQ(q, nextQ, reward, lr, discountRate float64) float64 {
	qRatio := 1.0 - lr
	newQ := reward + discountRate*nextQ
	return (qRatio * q) + (lr * newQ)
}

// Config は学習のハイパーパラメータ。生成後に変更しない。
type Config struct {
	Alpha    float64 `yaml:"alpha"`
	Gamma    float64 `yaml:"gamma"`
	Epsilon  float64 `yaml:"epsilon"`
	DefaultQ float64 `yaml:"default_q"`
}

func DefaultConfig() Config {
	return Config{
		Alpha:    0.8,
		Gamma:    0.2,
		Epsilon:  0.05,
		DefaultQ: 1.0,
	}
}

func inUnit(x float64) bool {
	return x >= 0 && x <= 1
}

func (c Config) Validate() error {
	if !inUnit(c.Alpha) {
		return fmt.Errorf("%w: Alpha = %v", ErrInvalidAlpha, c.Alpha)
	}
	if !inUnit(c.Gamma) {
		return fmt.Errorf("%w: Gamma = %v", ErrInvalidGamma, c.Gamma)
	}
	if !inUnit(c.Epsilon) {
		return fmt.Errorf("%w: Epsilon = %v", ErrInvalidEpsilon, c.Epsilon)
	}
	if !(c.DefaultQ > 0) || math.IsInf(c.DefaultQ, 0) {
		return fmt.Errorf("%w: DefaultQ = %v", ErrInvalidDefaultQ, c.DefaultQ)
	}
	return nil
}

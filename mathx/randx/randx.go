// Package randx は一様乱数 [0, 1) の供給源を抽象化し、その上に選択系のユーティリティを提供します。
package randx

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrEmptySequence = errors.New("Sequenceエラー: 値が1つもありません")
	ErrOutOfRange    = errors.New("Sequenceエラー: 値は [0, 1) の範囲である必要があります")
)

// Source は [0, 1) の一様乱数を返す。*rand.Rand はこれを満たす。
type Source interface {
	Float64() float64
}

func NewPCG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func Bool(src Source) bool {
	return src.Float64() < 0.5
}

// IntN は [0, n) の整数を返す。n <= 0 の場合は panic する。
func IntN(src Source, n int) int {
	if n <= 0 {
		panic("BUG: randx.IntN に n <= 0 が渡されました")
	}
	i := int(src.Float64() * float64(n))
	// Float64 が 1 に極めて近い場合の丸め対策
	if i >= n {
		i = n - 1
	}
	return i
}

// Sequence は決められた値を順番に返し、最後まで進むと先頭に戻る。
// テストで乱数の結果を固定する為に使う。
type Sequence struct {
	values []float64
	idx    int
}

func NewSequence(values ...float64) (*Sequence, error) {
	if len(values) == 0 {
		return nil, ErrEmptySequence
	}
	for _, v := range values {
		if v < 0 || v >= 1 {
			return nil, ErrOutOfRange
		}
	}
	return &Sequence{values: append([]float64(nil), values...)}, nil
}

func (s *Sequence) Float64() float64 {
	v := s.values[s.idx]
	s.idx = (s.idx + 1) % len(s.values)
	return v
}

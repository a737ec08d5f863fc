package ql

import (
	"math"

	"github.com/sw965/smartcab/mathx/randx"
	"gonum.org/v1/gonum/floats"
)

// EpsilonGreedy は確率 Epsilon で一様ランダムに行動を選び、それ以外は推定値が最大の行動を選ぶ。
type EpsilonGreedy[S, A comparable] struct {
	Table   *Table[S, A]
	Actions []A
	Epsilon float64
	Source  randx.Source
}

func (p EpsilonGreedy[S, A]) Validate() error {
	if p.Table == nil {
		return ErrNilTable
	}
	if len(p.Actions) == 0 {
		return ErrEmptyActions
	}
	if p.Source == nil {
		return ErrNilSource
	}
	if !inUnit(p.Epsilon) {
		return ErrInvalidEpsilon
	}
	return nil
}

// Select は (推定値, 行動) を返す。
//
// 乱数の消費順は固定: 暫定の行動を一様に1回、探索判定に1回、
// その後 Actions を順に走査し、最大値と同値の行動に出会う度にコイン投げを1回行い、
// 表が出たら (u < 0.5) 暫定の行動を置き換える。
func (p EpsilonGreedy[S, A]) Select(s S) (float64, A) {
	best := p.Actions[randx.IntN(p.Source, len(p.Actions))]
	if p.Source.Float64() < p.Epsilon {
		return p.Table.Get(s, best), best
	}

	maxQ := math.Inf(-1)
	for _, a := range p.Actions {
		q := p.Table.Get(s, a)
		switch {
		case q > maxQ:
			maxQ = q
			best = a
		case q == maxQ:
			if randx.Bool(p.Source) {
				best = a
			}
		}
	}
	return maxQ, best
}

// MaxQ は s における推定値の真の最大値。Select と違い探索を含まない。
func (p EpsilonGreedy[S, A]) MaxQ(s S) float64 {
	return floats.Max(p.Table.Row(s, p.Actions))
}

// Maximizers は s において推定値が最大となる行動を Actions の順で返す。
func (p EpsilonGreedy[S, A]) Maximizers(s S) []A {
	maxQ := p.MaxQ(s)
	var as []A
	for _, a := range p.Actions {
		if p.Table.Get(s, a) == maxQ {
			as = append(as, a)
		}
	}
	return as
}

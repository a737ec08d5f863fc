package ql

import (
	"github.com/sw965/smartcab/mathx/randx"
)

// Learner は1ステップ遅れのTD更新を行う。
// 先読み項には新しい状態における Policy.Select の値を使う。
// 探索で選ばれた値もそのまま使われ、貪欲な最大値ではない。
type Learner[S, A comparable] struct {
	Table  *Table[S, A]
	Policy EpsilonGreedy[S, A]
	Alpha  float64
	Gamma  float64
}

func NewLearner[S, A comparable](cfg Config, actions []A, src randx.Source) (Learner[S, A], error) {
	if err := cfg.Validate(); err != nil {
		return Learner[S, A]{}, err
	}

	table := NewTable[S, A](cfg.DefaultQ)
	policy := EpsilonGreedy[S, A]{
		Table:   table,
		Actions: append([]A(nil), actions...),
		Epsilon: cfg.Epsilon,
		Source:  src,
	}
	if err := policy.Validate(); err != nil {
		return Learner[S, A]{}, err
	}

	return Learner[S, A]{
		Table:  table,
		Policy: policy,
		Alpha:  cfg.Alpha,
		Gamma:  cfg.Gamma,
	}, nil
}

func (l Learner[S, A]) Observe(prevState S, prevAction A, prevReward float64, newState S) {
	old := l.Table.Get(prevState, prevAction)
	next, _ := l.Policy.Select(newState)
	l.Table.Set(prevState, prevAction, UpdateQ(old, next, prevReward, l.Alpha, l.Gamma))
}

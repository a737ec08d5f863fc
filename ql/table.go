package ql

import (
	"iter"
)

type Key[S, A comparable] struct {
	State  S
	Action A
}

// Table は (状態, 行動) から推定値への疎な写像。
// 未登録の組は Default を返すが、読み出しで登録はされない。エビクションは無い。
type Table[S, A comparable] struct {
	values  map[Key[S, A]]float64
	Default float64
}

func NewTable[S, A comparable](defaultQ float64) *Table[S, A] {
	return &Table[S, A]{
		values:  map[Key[S, A]]float64{},
		Default: defaultQ,
	}
}

func (t *Table[S, A]) Get(s S, a A) float64 {
	if v, ok := t.values[Key[S, A]{State: s, Action: a}]; ok {
		return v
	}
	return t.Default
}

func (t *Table[S, A]) Set(s S, a A, v float64) {
	t.values[Key[S, A]{State: s, Action: a}] = v
}

// Has は (s, a) が一度でも Set されたかを返す。
func (t *Table[S, A]) Has(s S, a A) bool {
	_, ok := t.values[Key[S, A]{State: s, Action: a}]
	return ok
}

func (t *Table[S, A]) Len() int {
	return len(t.values)
}

// Row は actions の順に推定値を並べて返す。
func (t *Table[S, A]) Row(s S, actions []A) []float64 {
	row := make([]float64, len(actions))
	for i, a := range actions {
		row[i] = t.Get(s, a)
	}
	return row
}

// All は登録済みの全エントリを返す。順序は不定。
func (t *Table[S, A]) All() iter.Seq2[Key[S, A], float64] {
	return func(yield func(Key[S, A], float64) bool) {
		for k, v := range t.values {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Package state は感知した入力 (Percept) と経路案内を、Qテーブルのキーとなる正準な状態へ変換します。
//
// Package state canonicalises percepts plus the route planner's hint into a
// comparable State that is used as a Q-table key.
package state

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/sw965/smartcab/action"
)

// WaypointKey は経路案内を状態に加える際のキー。
const WaypointKey = "next_waypoint"

// Percept はセンサー名からカテゴリ値への写像。呼び出し側が所有する。
type Percept map[string]string

func (p Percept) Clone() Percept {
	return maps.Clone(p)
}

type Pair struct {
	Key   string
	Value string
}

// State は Percept と経路案内から作られる正準キー。
// 比較可能な値型なので map のキーとしてそのまま使える。
type State string

// Encode はキーの挿入順に依存しない。p は変更しない。
func Encode(p Percept, waypoint action.Action) State {
	kvs := make(map[string]string, len(p)+1)
	for k, v := range p {
		kvs[k] = v
	}
	kvs[WaypointKey] = string(waypoint)

	keys := slices.Sorted(maps.Keys(kvs))
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(kvs[k]))
	}
	return State(b.String())
}

// Pairs はキー順に並んだ組を返す。Encode 以外で作られた State に対しては nil を返す。
func (s State) Pairs() []Pair {
	rest := string(s)
	if rest == "" {
		return nil
	}

	var pairs []Pair
	for {
		k, after, ok := unquotePrefix(rest)
		if !ok || !strings.HasPrefix(after, "=") {
			return nil
		}
		v, after, ok := unquotePrefix(after[1:])
		if !ok {
			return nil
		}
		pairs = append(pairs, Pair{Key: k, Value: v})

		if after == "" {
			return pairs
		}
		if after[0] != ',' {
			return nil
		}
		rest = after[1:]
	}
}

func unquotePrefix(s string) (string, string, bool) {
	q, err := strconv.QuotedPrefix(s)
	if err != nil {
		return "", "", false
	}
	v, err := strconv.Unquote(q)
	if err != nil {
		return "", "", false
	}
	return v, s[len(q):], true
}

// Value はキーに対応する値を返す。
func (s State) Value(key string) (string, bool) {
	for _, p := range s.Pairs() {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (s State) String() string {
	pairs := s.Pairs()
	strs := make([]string, len(pairs))
	for i, p := range pairs {
		strs[i] = p.Key + ":" + p.Value
	}
	return "{" + strings.Join(strs, " ") + "}"
}

package ql_test

import (
	"errors"
	"math"
	"testing"

	"github.com/sw965/smartcab/mathx/randx"
	"github.com/sw965/smartcab/ql"
)

const tol = 1e-9

var actions = []string{"none", "forward", "left", "right"}

func newLearner(t *testing.T, cfg ql.Config, src randx.Source) ql.Learner[string, string] {
	t.Helper()
	l, err := ql.NewLearner[string, string](cfg, actions, src)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	return l
}

func mustSequence(t *testing.T, vs ...float64) *randx.Sequence {
	t.Helper()
	seq, err := randx.NewSequence(vs...)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	return seq
}

func TestUpdateQ(t *testing.T) {
	tests := []struct {
		name            string
		q, next, reward float64
		lr, discount    float64
		want            float64
	}{
		{name: "標準", q: 1, next: 1, reward: 2, lr: 0.8, discount: 0.2, want: 1.96},
		{name: "lr=1は古い値を捨てる", q: 100, next: 3, reward: -1, lr: 1, discount: 0.5, want: 0.5},
		{name: "lr=0は古い値のまま", q: 7, next: 3, reward: -1, lr: 0, discount: 0.5, want: 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ql.UpdateQ(tc.q, tc.next, tc.reward, tc.lr, tc.discount)
			if math.Abs(got-tc.want) > tol {
				t.Errorf("got = %v, want = %v", got, tc.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*ql.Config)
		wantErr error
	}{
		{name: "正常_デフォルト", mod: func(c *ql.Config) {}},
		{name: "正常_境界値", mod: func(c *ql.Config) { c.Alpha, c.Gamma, c.Epsilon = 0, 1, 1 }},
		{name: "異常_Alpha負", mod: func(c *ql.Config) { c.Alpha = -0.1 }, wantErr: ql.ErrInvalidAlpha},
		{name: "異常_Gamma超過", mod: func(c *ql.Config) { c.Gamma = 1.5 }, wantErr: ql.ErrInvalidGamma},
		{name: "異常_EpsilonNaN", mod: func(c *ql.Config) { c.Epsilon = math.NaN() }, wantErr: ql.ErrInvalidEpsilon},
		{name: "異常_DefaultQゼロ", mod: func(c *ql.Config) { c.DefaultQ = 0 }, wantErr: ql.ErrInvalidDefaultQ},
		{name: "異常_DefaultQ無限", mod: func(c *ql.Config) { c.DefaultQ = math.Inf(1) }, wantErr: ql.ErrInvalidDefaultQ},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ql.DefaultConfig()
			tc.mod(&cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("予期しないエラー: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("errors.Is(err, %v) == false: err = %v", tc.wantErr, err)
			}
		})
	}
}

func TestTableDefault(t *testing.T) {
	table := ql.NewTable[string, string](1.5)
	for _, a := range actions {
		if got := table.Get("s", a); got != 1.5 {
			t.Errorf("Get(s, %s) = %v, want = 1.5", a, got)
		}
	}
	if table.Len() != 0 {
		t.Errorf("読み出しで登録された: Len() = %d", table.Len())
	}

	table.Set("s", "left", -3)
	if got := table.Get("s", "left"); got != -3 {
		t.Errorf("Get = %v, want = -3", got)
	}
	if !table.Has("s", "left") || table.Has("s", "right") {
		t.Errorf("Has の結果が不正")
	}
	table.Set("s", "left", 4)
	if got, n := table.Get("s", "left"), table.Len(); got != 4 || n != 1 {
		t.Errorf("上書き失敗: Get = %v, Len = %d", got, n)
	}

	n := 0
	for k, v := range table.All() {
		if k.State != "s" || k.Action != "left" || v != 4 {
			t.Errorf("All() が不正なエントリを返した: %v %v", k, v)
		}
		n++
	}
	if n != 1 {
		t.Errorf("All() のエントリ数 = %d, want = 1", n)
	}
}

func TestSelectTieBreakDeterministic(t *testing.T) {
	// 暫定=index0, 探索しない, 以降の同値3回のコイン
	tests := []struct {
		name string
		seq  []float64
		want string
	}{
		{name: "全て置き換えない", seq: []float64{0.0, 0.9, 0.9, 0.9, 0.9}, want: "none"},
		{name: "最後だけ置き換える", seq: []float64{0.0, 0.9, 0.9, 0.9, 0.1}, want: "right"},
		{name: "2番目で置き換える", seq: []float64{0.0, 0.9, 0.1, 0.9, 0.9}, want: "forward"},
		{name: "3番目で置き換える", seq: []float64{0.0, 0.9, 0.9, 0.4, 0.6}, want: "left"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newLearner(t, ql.DefaultConfig(), mustSequence(t, tc.seq...))
			v, a := l.Policy.Select("s")
			if v != 1 {
				t.Errorf("value = %v, want = 1", v)
			}
			if a != tc.want {
				t.Errorf("action = %v, want = %v", a, tc.want)
			}
		})
	}
}

func TestSelectExplore(t *testing.T) {
	// 0.6*4 = 2.4 -> left, 0.01 < epsilon なので探索
	l := newLearner(t, ql.DefaultConfig(), mustSequence(t, 0.6, 0.01))
	l.Table.Set("s", "forward", 10)
	l.Table.Set("s", "left", -2)
	v, a := l.Policy.Select("s")
	if a != "left" || v != -2 {
		t.Errorf("Select = (%v, %v), want = (-2, left)", v, a)
	}
}

func TestSelectGreedyOnlyMaximizers(t *testing.T) {
	cfg := ql.DefaultConfig()
	cfg.Epsilon = 0
	l := newLearner(t, cfg, randx.NewPCG(1))
	l.Table.Set("s", "none", 1)
	l.Table.Set("s", "forward", 3)
	l.Table.Set("s", "left", 3)
	l.Table.Set("s", "right", 2)

	maximizers := l.Policy.Maximizers("s")
	if len(maximizers) != 2 || maximizers[0] != "forward" || maximizers[1] != "left" {
		t.Fatalf("Maximizers = %v", maximizers)
	}

	counts := map[string]int{}
	for range 1000 {
		v, a := l.Policy.Select("s")
		if v != 3 {
			t.Fatalf("value = %v, want = 3", v)
		}
		counts[a]++
	}
	if counts["none"] != 0 || counts["right"] != 0 {
		t.Errorf("最大でない行動が選ばれた: %v", counts)
	}
	if counts["forward"] == 0 || counts["left"] == 0 {
		t.Errorf("同値の行動の片方が一度も選ばれない: %v", counts)
	}
}

func TestSelectFreshTableFairness(t *testing.T) {
	cfg := ql.DefaultConfig()
	cfg.Epsilon = 0
	l := newLearner(t, cfg, randx.NewPCG(42))

	counts := map[string]int{}
	for range 1000 {
		v, a := l.Policy.Select("s")
		if v != cfg.DefaultQ {
			t.Fatalf("value = %v, want = %v", v, cfg.DefaultQ)
		}
		counts[a]++
	}
	// コイン投げによる置き換えでは最も少ない行動でも期待値は 1/8
	for _, a := range actions {
		if counts[a] < 50 {
			t.Errorf("%s の出現回数が少なすぎる: %v", a, counts)
		}
	}
	if got := l.Policy.MaxQ("s"); got != cfg.DefaultQ {
		t.Errorf("MaxQ = %v", got)
	}
}

func TestObserveScenario(t *testing.T) {
	l := newLearner(t, ql.DefaultConfig(), randx.NewPCG(7))
	l.Observe("S", "forward", 2, "S2")
	if got := l.Table.Get("S", "forward"); math.Abs(got-1.96) > tol {
		t.Errorf("Get(S, forward) = %v, want = 1.96", got)
	}
	if l.Table.Has("S2", "forward") {
		t.Errorf("新しい状態に書き込まれた")
	}
}

func TestObserveAlphaBoundaries(t *testing.T) {
	t.Run("alpha=1", func(t *testing.T) {
		cfg := ql.Config{Alpha: 1, Gamma: 0.5, Epsilon: 0, DefaultQ: 1}
		l := newLearner(t, cfg, randx.NewPCG(3))
		l.Table.Set("S", "left", 100)
		l.Table.Set("S2", "right", 4)
		l.Observe("S", "left", -1, "S2")
		if got, want := l.Table.Get("S", "left"), -1+0.5*4.0; math.Abs(got-want) > tol {
			t.Errorf("got = %v, want = %v", got, want)
		}
	})

	t.Run("alpha=0", func(t *testing.T) {
		cfg := ql.Config{Alpha: 0, Gamma: 0.5, Epsilon: 0, DefaultQ: 1}
		l := newLearner(t, cfg, randx.NewPCG(3))
		l.Table.Set("S", "left", 100)
		l.Observe("S", "left", -1, "S2")
		if got := l.Table.Get("S", "left"); got != 100 {
			t.Errorf("got = %v, want = 100", got)
		}
	})
}

func TestObserveUsesPolicyPickNotMax(t *testing.T) {
	// 探索で right (Q=0) が選ばれると先読み項は MaxQ の 5 ではなく 0 になる
	cfg := ql.Config{Alpha: 1, Gamma: 1, Epsilon: 0.5, DefaultQ: 1}
	l := newLearner(t, cfg, mustSequence(t, 0.9, 0.1))
	l.Table.Set("S2", "forward", 5)
	l.Table.Set("S2", "right", 0)
	l.Observe("S", "none", 0, "S2")
	if got := l.Table.Get("S", "none"); got != 0 {
		t.Errorf("got = %v, want = 0", got)
	}
}

func TestNewLearnerValidation(t *testing.T) {
	if _, err := ql.NewLearner[string, string](ql.DefaultConfig(), nil, randx.NewPCG(1)); !errors.Is(err, ql.ErrEmptyActions) {
		t.Errorf("err = %v, want ErrEmptyActions", err)
	}
	if _, err := ql.NewLearner[string, string](ql.DefaultConfig(), actions, nil); !errors.Is(err, ql.ErrNilSource) {
		t.Errorf("err = %v, want ErrNilSource", err)
	}
}

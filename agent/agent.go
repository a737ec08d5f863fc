// Package agent は感知・選択・行動・学習・記録を1ティック毎に行う学習エージェントを提供します。
package agent

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/sw965/smartcab/action"
	"github.com/sw965/smartcab/mathx/randx"
	"github.com/sw965/smartcab/ql"
	"github.com/sw965/smartcab/state"
	"github.com/sw965/smartcab/stats"
)

// SuccessReward 以上の報酬は目的地への到着を意味する。
const SuccessReward = 10.0

// Environment はエージェントから見た外部世界。
type Environment interface {
	Sense() state.Percept
	// Deadline は残りティック数。0 は期限切れを表す。
	Deadline() int
	Act(action.Action) float64
}

type Planner interface {
	NextWaypoint() action.Action
}

type transition struct {
	state  state.State
	action action.Action
	reward float64
}

// Tick は1ティック分の記録。
type Tick struct {
	Percept         state.Percept
	Waypoint        action.Action
	State           state.State
	Action          action.Action
	Value           float64
	Reward          float64
	Deadline        int
	GoalReached     bool
	DeadlineExpired bool
}

func (t Tick) Done() bool {
	return t.GoalReached || t.DeadlineExpired
}

type LearningAgent struct {
	config  ql.Config
	learner ql.Learner[state.State, action.Action]
	prev    *transition
	stats   stats.EpisodeStats
	logger  *slog.Logger
}

// New は cfg を検証してエージェントを作る。logger が nil の場合はログを出さない。
func New(cfg ql.Config, src randx.Source, logger *slog.Logger) (*LearningAgent, error) {
	learner, err := ql.NewLearner[state.State, action.Action](cfg, action.All, src)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LearningAgent{
		config:  cfg,
		learner: learner,
		logger:  logger,
	}, nil
}

func (a *LearningAgent) Config() ql.Config {
	return a.config
}

// Reset は新しい試行の準備として直前の遷移だけを消す。Qテーブルと統計は残る。
func (a *LearningAgent) Reset() {
	a.prev = nil
}

func (a *LearningAgent) Update(env Environment, planner Planner) Tick {
	waypoint := planner.NextWaypoint()
	percept := env.Sense()
	deadline := env.Deadline()

	s := state.Encode(percept, waypoint)
	value, act := a.learner.Policy.Select(s)
	reward := env.Act(act)

	// 1ティック前の遷移について、今の状態を使って学習する
	if a.prev != nil {
		a.learner.Observe(a.prev.state, a.prev.action, a.prev.reward, s)
	}
	a.prev = &transition{state: s, action: act, reward: reward}

	tick := Tick{
		Percept:         percept.Clone(),
		Waypoint:        waypoint,
		State:           s,
		Action:          act,
		Value:           value,
		Reward:          reward,
		Deadline:        deadline,
		GoalReached:     reward >= SuccessReward,
		DeadlineExpired: deadline == 0,
	}
	a.stats.RecordTick(reward, tick.GoalReached, tick.DeadlineExpired)

	a.logger.Debug("LearningAgent.Update",
		"deadline", deadline,
		"state", s.String(),
		"action", act,
		"reward", reward,
	)
	if tick.Done() {
		a.logger.Info("attempt finished",
			"success", tick.GoalReached,
			"success_rate", a.stats.SuccessRate(),
			"penalty_rate", a.stats.PenaltyRate(),
			"net_reward", a.stats.NetReward,
		)
	}
	return tick
}

// Value は学習済みの推定値を返す。未学習の組はデフォルト値。
func (a *LearningAgent) Value(s state.State, act action.Action) float64 {
	return a.learner.Table.Get(s, act)
}

// Greedy は s において推定値が最大となる行動。同値の場合は action.All の先頭側。
func (a *LearningAgent) Greedy(s state.State) action.Action {
	return a.learner.Policy.Maximizers(s)[0]
}

// PolicyEntry は学習済みの状態における貪欲な行動とその推定値。
type PolicyEntry struct {
	State  state.State
	Action action.Action
	Value  float64
}

// Policy は一度でも学習した状態ごとの貪欲な行動を、状態の順に返す。
func (a *LearningAgent) Policy() []PolicyEntry {
	seen := map[state.State]struct{}{}
	for k := range a.learner.Table.All() {
		seen[k.State] = struct{}{}
	}

	states := slices.Sorted(maps.Keys(seen))
	entries := make([]PolicyEntry, len(states))
	for i, s := range states {
		act := a.Greedy(s)
		entries[i] = PolicyEntry{State: s, Action: act, Value: a.Value(s, act)}
	}
	return entries
}

func (a *LearningAgent) TableSize() int {
	return a.learner.Table.Len()
}

func (a *LearningAgent) Stats() stats.EpisodeStats {
	return a.stats
}

func (a *LearningAgent) Summary() string {
	return a.stats.String()
}

// Package simulator は世界と学習エージェントを組み合わせ、試行を繰り返し実行します。
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sw965/smartcab/agent"
	"github.com/sw965/smartcab/world"
)

var (
	ErrNilWorld      = errors.New("Simulatorエラー: World が nil です")
	ErrNilAgent      = errors.New("Simulatorエラー: Agent が nil です")
	ErrInvalidTrials = errors.New("Simulatorエラー: 試行回数は1以上である必要があります")
)

type TrialResult struct {
	Trial        int
	Success      bool
	Reached      bool
	Steps        int
	NetReward    float64
	Penalties    int
	DeadlineLeft int
}

type Simulator struct {
	World  *world.Environment
	Agent  *agent.LearningAgent
	Logger *slog.Logger

	// OnTick と OnTrial は nil でもよい。OnTrial がエラーを返すと Run は中断する。
	OnTick  func(trial int, tick agent.Tick)
	OnTrial func(TrialResult) error
}

func (s Simulator) Validate() error {
	if s.World == nil {
		return ErrNilWorld
	}
	if s.Agent == nil {
		return ErrNilAgent
	}
	return nil
}

func (s Simulator) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// RunTrial は1回の試行を最後まで進める。ctx はティックの間でのみ確認する。
func (s Simulator) RunTrial(ctx context.Context, trial int) (TrialResult, error) {
	if err := s.Validate(); err != nil {
		return TrialResult{}, err
	}

	s.World.Reset()
	primary := s.World.Primary()
	planner := world.NewRoutePlanner(primary)
	planner.RouteTo(primary.Destination)
	s.Agent.Reset()
	view := s.World.PrimaryView()

	s.logger().Debug("trial started",
		"trial", trial,
		"start", primary.Location,
		"destination", primary.Destination,
		"deadline", primary.Deadline,
	)

	result := TrialResult{Trial: trial}
	for !s.World.Done() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		s.World.BeginTick()
		tick := s.Agent.Update(view, planner)
		s.World.EndTick()

		result.Steps++
		result.NetReward += tick.Reward
		if tick.Reward < 0 {
			result.Penalties++
		}
		if tick.GoalReached {
			result.Success = true
		}
		if s.OnTick != nil {
			s.OnTick(trial, tick)
		}
	}
	result.Reached = s.World.Reached()
	result.DeadlineLeft = primary.Deadline

	s.logger().Info("trial finished",
		"trial", trial,
		"success", result.Success,
		"steps", result.Steps,
		"net_reward", result.NetReward,
		"penalties", result.Penalties,
	)
	return result, nil
}

func (s Simulator) Run(ctx context.Context, n int) ([]TrialResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n = %d", ErrInvalidTrials, n)
	}

	results := make([]TrialResult, 0, n)
	for i := range n {
		result, err := s.RunTrial(ctx, i+1)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", i+1, err)
		}
		results = append(results, result)

		if s.OnTrial != nil {
			if err := s.OnTrial(result); err != nil {
				return results, fmt.Errorf("trial %d: %w", i+1, err)
			}
		}
	}
	return results, nil
}

// Package stats は学習の進み具合を評価する為の累積カウンタを提供します。
package stats

import (
	"fmt"

	"github.com/sw965/smartcab/mathx"
)

// EpisodeStats はエージェントの生存期間を通して加算のみされる。試行毎にはリセットしない。
type EpisodeStats struct {
	Successes int
	Attempts  int
	Penalties int
	Moves     int
	NetReward float64
}

func (s *EpisodeStats) RecordTick(reward float64, goalReached, deadlineExpired bool) {
	s.Moves++
	s.NetReward += reward
	if reward < 0 {
		s.Penalties++
	}
	if goalReached || deadlineExpired {
		s.Attempts++
		if goalReached {
			s.Successes++
		}
	}
}

func (s EpisodeStats) SuccessRate() float64 {
	return mathx.SafeDiv(float64(s.Successes), float64(s.Attempts))
}

func (s EpisodeStats) PenaltyRate() float64 {
	return mathx.SafeDiv(float64(s.Penalties), float64(s.Moves))
}

func (s EpisodeStats) String() string {
	return fmt.Sprintf("success_rate: %d/%d (%v)\npenalty_rate: %d/%d (%v)\nnet_reward: %v",
		s.Successes, s.Attempts, mathx.RoundTo(float32(s.SuccessRate()), 2),
		s.Penalties, s.Moves, mathx.RoundTo(float32(s.PenaltyRate()), 2),
		s.NetReward,
	)
}

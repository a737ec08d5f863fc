// Package metrics は学習エージェントの統計を Prometheus のメトリクスとして公開します。
//
// 値は Observe を呼んだ時点のスナップショットで、収集 (Gather) がエージェントを直接読むことは無い。
// Observe はエージェントを動かしているゴルーチンから呼ぶこと。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sw965/smartcab/stats"
)

const namespace = "smartcab"

// Source は Observe の中でのみ読み出される。LearningAgent が満たす。
type Source interface {
	Stats() stats.EpisodeStats
	TableSize() int
}

type Metrics struct {
	SuccessRate prometheus.Gauge
	PenaltyRate prometheus.Gauge
	NetReward   prometheus.Gauge
	TableSize   prometheus.Gauge
	Moves       prometheus.Counter
	Attempts    prometheus.Counter
	Successes   prometheus.Counter

	// 最後に Observe した統計。カウンターには差分だけを加える
	last stats.EpisodeStats
}

func New() *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	return &Metrics{
		SuccessRate: gauge("success_rate", "Successful arrivals per finished attempt."),
		PenaltyRate: gauge("penalty_rate", "Penalised moves per move."),
		NetReward:   gauge("net_reward", "Cumulative reward over the agent lifetime."),
		TableSize:   gauge("q_table_entries", "Number of learned state/action pairs."),
		Moves:       counter("moves_total", "Ticks taken by the agent."),
		Attempts:    counter("attempts_total", "Finished attempts (arrival or expired deadline)."),
		Successes:   counter("successes_total", "Successful arrivals."),
	}
}

// Observe は src の現在の値をメトリクスに書き込む。
func (m *Metrics) Observe(src Source) {
	s := src.Stats()
	m.SuccessRate.Set(s.SuccessRate())
	m.PenaltyRate.Set(s.PenaltyRate())
	m.NetReward.Set(s.NetReward)
	m.TableSize.Set(float64(src.TableSize()))

	// 統計は単調増加なので差分は負にならない
	m.Moves.Add(float64(s.Moves - m.last.Moves))
	m.Attempts.Add(float64(s.Attempts - m.last.Attempts))
	m.Successes.Add(float64(s.Successes - m.last.Successes))
	m.last = s
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SuccessRate, m.PenaltyRate, m.NetReward, m.TableSize,
		m.Moves, m.Attempts, m.Successes,
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

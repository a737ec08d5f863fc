// Package report は試行結果を要約し、学習曲線を HTML に描画します。
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/sw965/smartcab/mathx"
	"github.com/sw965/smartcab/simulator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RecentWindow は直近の成功率を求める試行数。
const RecentWindow = 10

type Summary struct {
	Trials            int
	Successes         int
	SuccessRate       float64
	RecentSuccessRate float64
	MeanNetReward     float64
	StdNetReward      float64
	MeanSteps         float64
	TotalPenalties    int
}

func Summarize(results []simulator.TrialResult) Summary {
	n := len(results)
	if n == 0 {
		return Summary{}
	}

	rewards := make([]float64, n)
	steps := make([]float64, n)
	succ := make([]float64, n)
	penalties := 0
	for i, r := range results {
		rewards[i] = r.NetReward
		steps[i] = float64(r.Steps)
		if r.Success {
			succ[i] = 1
		}
		penalties += r.Penalties
	}

	mean, std := stat.MeanStdDev(rewards, nil)
	if n == 1 {
		std = 0
	}
	recent := succ[max(0, n-RecentWindow):]
	successes := int(floats.Sum(succ))
	return Summary{
		Trials:            n,
		Successes:         successes,
		SuccessRate:       mathx.SafeDiv(float64(successes), float64(n)),
		RecentSuccessRate: stat.Mean(recent, nil),
		MeanNetReward:     mean,
		StdNetReward:      std,
		MeanSteps:         stat.Mean(steps, nil),
		TotalPenalties:    penalties,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("trials: %d\nsuccess: %d (%.2f, last %d: %.2f)\nnet_reward: %.2f ± %.2f\nsteps: %.1f\npenalties: %d",
		s.Trials, s.Successes, s.SuccessRate, RecentWindow, s.RecentSuccessRate,
		s.MeanNetReward, s.StdNetReward, s.MeanSteps, s.TotalPenalties)
}

// CumulativeSuccessRate は i 番目までの試行の成功率を並べる。
func CumulativeSuccessRate(results []simulator.TrialResult) []float64 {
	rates := make([]float64, len(results))
	successes := 0
	for i, r := range results {
		if r.Success {
			successes++
		}
		rates[i] = float64(successes) / float64(i+1)
	}
	return rates
}

// WriteChart は累積成功率と試行毎の報酬の折れ線グラフを書き出す。
func WriteChart(w io.Writer, title string, results []simulator.TrialResult) error {
	xs := make([]string, len(results))
	rateItems := make([]opts.LineData, len(results))
	rewardItems := make([]opts.LineData, len(results))
	for i, rate := range CumulativeSuccessRate(results) {
		xs[i] = strconv.Itoa(results[i].Trial)
		rateItems[i] = opts.LineData{Value: rate}
		rewardItems[i] = opts.LineData{Value: results[i].NetReward}
	}

	rateLine := charts.NewLine()
	rateLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "cumulative success rate"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	rateLine.SetXAxis(xs).AddSeries("success_rate", rateItems)

	rewardLine := charts.NewLine()
	rewardLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "net reward per trial"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	rewardLine.SetXAxis(xs).AddSeries("net_reward", rewardItems)

	page := components.NewPage()
	page.AddCharts(rateLine, rewardLine)
	return page.Render(w)
}

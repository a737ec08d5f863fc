package world

import (
	"github.com/sw965/smartcab/mathx/randx"
)

var lightPeriods = []int{3, 4, 5}

// TrafficLight は NorthSouth が true の間、南北方向の車両に青を出す。
type TrafficLight struct {
	NorthSouth  bool
	Period      int
	lastUpdated int
}

func NewTrafficLight(src randx.Source) *TrafficLight {
	l := &TrafficLight{Period: lightPeriods[randx.IntN(src, len(lightPeriods))]}
	l.Reset(src)
	return l
}

func (l *TrafficLight) Reset(src randx.Source) {
	l.NorthSouth = randx.Bool(src)
	l.lastUpdated = 0
}

func (l *TrafficLight) Update(t int) {
	if t-l.lastUpdated >= l.Period {
		l.NorthSouth = !l.NorthSouth
		l.lastUpdated = t
	}
}

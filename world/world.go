// Package world は交差点と信号からなる格子状の交通シミュレーションを提供します。
// 学習エージェントが走る主車両と、経路を無作為に選ぶダミー車両を扱います。
package world

import (
	"errors"
	"fmt"

	"github.com/sw965/smartcab/action"
	"github.com/sw965/smartcab/mathx/randx"
	"github.com/sw965/smartcab/state"
)

var (
	ErrInvalidGrid        = errors.New("Configエラー: 格子の幅と高さは2以上である必要があります")
	ErrNegativeDummies    = errors.New("Configエラー: DummyAgents は0以上である必要があります")
	ErrInvalidMinDistance = errors.New("Configエラー: MinDistance が格子に収まりません")
	ErrInvalidDeadline    = errors.New("Configエラー: DeadlineFactor は1以上である必要があります")
	ErrNilSource          = errors.New("乱数エラー: Source が nil です")
)

// 報酬
const (
	RewardIdle     = 0.0
	RewardWaypoint = 2.0
	RewardDetour   = -0.5
	RewardIllegal  = -1.0
	RewardArrival  = 10.0
)

// センサー名
const (
	SensorLight    = "light"
	SensorOncoming = "oncoming"
	SensorLeft     = "left"
	SensorRight    = "right"
)

const (
	Green = "green"
	Red   = "red"
)

type Location struct {
	X int
	Y int
}

type Heading struct {
	DX int
	DY int
}

var (
	East  = Heading{DX: 1, DY: 0}
	North = Heading{DX: 0, DY: -1}
	West  = Heading{DX: -1, DY: 0}
	South = Heading{DX: 0, DY: 1}
)

var Headings = []Heading{East, North, West, South}

func (h Heading) TurnLeft() Heading {
	return Heading{DX: h.DY, DY: -h.DX}
}

func (h Heading) TurnRight() Heading {
	return Heading{DX: -h.DY, DY: h.DX}
}

func (h Heading) Reverse() Heading {
	return Heading{DX: -h.DX, DY: -h.DY}
}

func Distance(a, b Location) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

type Car struct {
	ID          int
	Location    Location
	Heading     Heading
	Destination Location
	Deadline    int
	// Waypoint は次に進みたい方向。他の車両からは oncoming/left/right として見える。
	Waypoint action.Action
}

type Config struct {
	Width           int  `yaml:"width"`
	Height          int  `yaml:"height"`
	DummyAgents     int  `yaml:"dummy_agents"`
	EnforceDeadline bool `yaml:"enforce_deadline"`
	HardTimeLimit   int  `yaml:"hard_time_limit"`
	MinDistance     int  `yaml:"min_distance"`
	DeadlineFactor  int  `yaml:"deadline_factor"`
}

func DefaultConfig() Config {
	return Config{
		Width:           8,
		Height:          6,
		DummyAgents:     3,
		EnforceDeadline: true,
		HardTimeLimit:   -100,
		MinDistance:     4,
		DeadlineFactor:  5,
	}
}

func (c Config) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, c.Width, c.Height)
	}
	if c.DummyAgents < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDummies, c.DummyAgents)
	}
	if c.MinDistance < 1 || c.MinDistance > (c.Width-1)+(c.Height-1) {
		return fmt.Errorf("%w: %d", ErrInvalidMinDistance, c.MinDistance)
	}
	if c.DeadlineFactor < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDeadline, c.DeadlineFactor)
	}
	return nil
}

type Environment struct {
	config  Config
	src     randx.Source
	lights  map[Location]*TrafficLight
	// 乱数の消費順を固定する為に信号は常にこの順で走査する
	order   []Location
	primary *Car
	dummies []*Car
	t       int
	done    bool
	reached bool
}

func New(cfg Config, src randx.Source) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}

	e := &Environment{
		config: cfg,
		src:    src,
		lights: map[Location]*TrafficLight{},
	}
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			loc := Location{X: x, Y: y}
			e.lights[loc] = NewTrafficLight(src)
			e.order = append(e.order, loc)
		}
	}

	e.primary = &Car{ID: 0}
	for i := range cfg.DummyAgents {
		e.dummies = append(e.dummies, &Car{ID: i + 1})
	}
	return e, nil
}

func (e *Environment) Config() Config {
	return e.config
}

func (e *Environment) Primary() *Car {
	return e.primary
}

func (e *Environment) Dummies() []*Car {
	return e.dummies
}

func (e *Environment) Light(loc Location) *TrafficLight {
	return e.lights[e.wrap(loc)]
}

func (e *Environment) T() int {
	return e.t
}

func (e *Environment) Done() bool {
	return e.done
}

// Reached は現在の試行で主車両が目的地に着いたかを返す。
func (e *Environment) Reached() bool {
	return e.reached
}

func (e *Environment) randomLocation() Location {
	return Location{X: randx.IntN(e.src, e.config.Width), Y: randx.IntN(e.src, e.config.Height)}
}

func (e *Environment) randomHeading() Heading {
	return Headings[randx.IntN(e.src, len(Headings))]
}

func (e *Environment) randomMove() action.Action {
	return action.Moves[randx.IntN(e.src, len(action.Moves))]
}

func (e *Environment) wrap(loc Location) Location {
	w, h := e.config.Width, e.config.Height
	return Location{X: ((loc.X % w) + w) % w, Y: ((loc.Y % h) + h) % h}
}

// Reset は新しい試行を始める。主車両の出発地と目的地は MinDistance 以上離れる。
func (e *Environment) Reset() {
	e.t = 0
	e.done = false
	e.reached = false
	for _, loc := range e.order {
		e.lights[loc].Reset(e.src)
	}

	start := e.randomLocation()
	dest := e.randomLocation()
	for Distance(start, dest) < e.config.MinDistance {
		start = e.randomLocation()
		dest = e.randomLocation()
	}

	e.primary.Location = start
	e.primary.Heading = e.randomHeading()
	e.primary.Destination = dest
	e.primary.Deadline = Distance(start, dest) * e.config.DeadlineFactor
	e.primary.Waypoint = action.None

	for _, d := range e.dummies {
		d.Location = e.randomLocation()
		d.Heading = e.randomHeading()
		d.Waypoint = e.randomMove()
	}
}

// BeginTick は信号とダミー車両を1ティック進める。主車両はこの後に動かす。
func (e *Environment) BeginTick() {
	for _, loc := range e.order {
		e.lights[loc].Update(e.t)
	}
	for _, d := range e.dummies {
		e.updateDummy(d)
	}
}

// EndTick は時刻を進め、主車両の期限を1減らす。期限を使い切ると試行は終わる。
func (e *Environment) EndTick() {
	e.t++
	deadline := e.primary.Deadline
	if deadline <= e.config.HardTimeLimit {
		e.done = true
	} else if e.config.EnforceDeadline && deadline <= 0 {
		e.done = true
	}
	e.primary.Deadline = deadline - 1
}

func (e *Environment) cars() []*Car {
	return append([]*Car{e.primary}, e.dummies...)
}

func (e *Environment) Sense(car *Car) state.Percept {
	light := Red
	l := e.lights[car.Location]
	h := car.Heading
	if (l.NorthSouth && h.DY != 0) || (!l.NorthSouth && h.DX != 0) {
		light = Green
	}

	oncoming, left, right := action.None, action.None, action.None
	for _, other := range e.cars() {
		if other == car || other.Location != car.Location || other.Heading == h {
			continue
		}
		wp := other.Waypoint
		switch other.Heading {
		case h.Reverse():
			// oncoming == left を上書きしない
			if oncoming != action.Left {
				oncoming = wp
			}
		case h.TurnLeft():
			// 右から来る車両は自分から見て左へ進んでいる
			if right != action.Forward && right != action.Left {
				right = wp
			}
		default:
			if left != action.Forward {
				left = wp
			}
		}
	}

	return state.Percept{
		SensorLight:    light,
		SensorOncoming: string(oncoming),
		SensorLeft:     string(left),
		SensorRight:    string(right),
	}
}

func (e *Environment) Act(car *Car, a action.Action) float64 {
	p := e.Sense(car)
	green := p[SensorLight] == Green

	ok := true
	heading := car.Heading
	switch a {
	case action.Forward:
		ok = green
	case action.Left:
		oncoming := action.Action(p[SensorOncoming])
		if green && (oncoming == action.None || oncoming == action.Left) {
			heading = heading.TurnLeft()
		} else {
			ok = false
		}
	case action.Right:
		if green || action.Action(p[SensorLeft]) != action.Forward {
			heading = heading.TurnRight()
		} else {
			ok = false
		}
	}

	var reward float64
	switch {
	case !ok:
		reward = RewardIllegal
	case a == action.None:
		reward = RewardIdle
	default:
		car.Heading = heading
		car.Location = e.wrap(Location{X: car.Location.X + heading.DX, Y: car.Location.Y + heading.DY})
		if a == car.Waypoint {
			reward = RewardWaypoint
		} else {
			reward = RewardDetour
		}
	}

	if car == e.primary && car.Location == car.Destination {
		if car.Deadline >= 0 {
			reward += RewardArrival
		}
		e.done = true
		e.reached = true
	}
	return reward
}

func (e *Environment) updateDummy(d *Car) {
	p := e.Sense(d)
	red := p[SensorLight] == Red
	oncoming := action.Action(p[SensorOncoming])

	ok := true
	switch d.Waypoint {
	case action.Right:
		ok = !(red && action.Action(p[SensorLeft]) == action.Forward)
	case action.Forward:
		ok = !red
	case action.Left:
		ok = !(red || oncoming == action.Forward || oncoming == action.Right)
	}

	a := action.None
	if ok {
		a = d.Waypoint
		d.Waypoint = e.randomMove()
	}
	e.Act(d, a)
}

// PrimaryView は主車両を agent.Environment として見せる。
type PrimaryView struct {
	env *Environment
}

func (e *Environment) PrimaryView() PrimaryView {
	return PrimaryView{env: e}
}

func (v PrimaryView) Sense() state.Percept {
	return v.env.Sense(v.env.primary)
}

func (v PrimaryView) Deadline() int {
	return v.env.primary.Deadline
}

func (v PrimaryView) Act(a action.Action) float64 {
	return v.env.Act(v.env.primary, a)
}

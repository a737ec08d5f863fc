package world

import (
	"github.com/sw965/smartcab/action"
)

// RoutePlanner は目的地までの次の進行方向を案内する。
// 案内した方向は車両の Waypoint にも書き込まれる。
type RoutePlanner struct {
	car         *Car
	destination Location
}

func NewRoutePlanner(car *Car) *RoutePlanner {
	return &RoutePlanner{car: car, destination: car.Destination}
}

func (p *RoutePlanner) RouteTo(dest Location) {
	p.destination = dest
}

func (p *RoutePlanner) Destination() Location {
	return p.destination
}

func (p *RoutePlanner) NextWaypoint() action.Action {
	wp := p.waypoint()
	p.car.Waypoint = wp
	return wp
}

func (p *RoutePlanner) waypoint() action.Action {
	loc := p.car.Location
	h := p.car.Heading
	dx := p.destination.X - loc.X
	dy := p.destination.Y - loc.Y

	switch {
	case dx == 0 && dy == 0:
		return action.None
	// 東西方向のずれを先に解消する
	case dx != 0:
		switch {
		case dx*h.DX > 0:
			return action.Forward
		case dx*h.DX < 0:
			// 大回りのUターン
			return action.Right
		case dx*h.DY > 0:
			return action.Left
		default:
			return action.Right
		}
	default:
		switch {
		case dy*h.DY > 0:
			return action.Forward
		case dy*h.DY < 0:
			return action.Right
		case dy*h.DX > 0:
			return action.Right
		default:
			return action.Left
		}
	}
}

package mapcluster

const (
	minScreenPercent = 10.0
	maxScreenPercent = 90.0
)

// Bounds: прямоугольник карты в градусах.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// GujaratBounds: приблизительные границы штата.
var GujaratBounds = Bounds{North: 24.7, South: 20.1, East: 74.5, West: 68.1}

// Position: положение маркера в процентах от левого верхнего угла.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center возвращает центр прямоугольника.
func (b Bounds) Center() (lat, lng float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// Position линейно переводит координату в проценты: X от западной границы, Y от северной.
func (b Bounds) Position(lat, lng float64) Position {
	return Position{
		X: (lng - b.West) / (b.East - b.West) * 100,
		Y: (b.North - lat) / (b.North - b.South) * 100,
	}
}

// ScreenPosition прижимает Position к [10, 90], чтобы маркер не уходил за край.
func (b Bounds) ScreenPosition(lat, lng float64) Position {
	return b.Position(lat, lng).Clamp()
}

func (p Position) Clamp() Position {
	return Position{X: clamp(p.X), Y: clamp(p.Y)}
}

func clamp(v float64) float64 {
	if v < minScreenPercent {
		return minScreenPercent
	}
	if v > maxScreenPercent {
		return maxScreenPercent
	}
	return v
}

package state

import "math"

// Simplify reduces a stroke's vertex count with Douglas-Peucker. Points closer than
// tolerance to the chord between the kept neighbours are dropped. Strokes of two
// points or fewer are returned unchanged.
func Simplify(points []Point, tolerance float64) []Point {
	if len(points) <= 2 || tolerance <= 0 {
		return points
	}

	dmax := 0.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > tolerance {
		left := Simplify(points[:index+1], tolerance)
		right := Simplify(points[index:], tolerance)

		result := make([]Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []Point{points[0], points[end]}
}

// perpendicularDistance is the distance from p to the line through a and b.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return Distance(p, a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	return num / math.Hypot(dx, dy)
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Center returns the midpoint of a and b.
func Center(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

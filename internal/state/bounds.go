package state

// Area is an axis aligned rectangle on the board.
type Area struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Empty reports whether the area covers nothing.
func (a Area) Empty() bool {
	return a.Width <= 0 && a.Height <= 0
}

// Overlaps reports whether two areas share any point.
func (a Area) Overlaps(b Area) bool {
	return !(a.X+a.Width < b.X || b.X+b.Width < a.X ||
		a.Y+a.Height < b.Y || b.Y+b.Height < a.Y)
}

// Union returns the smallest area containing both a and b.
func (a Area) Union(b Area) Area {
	minX := a.X
	if b.X < minX {
		minX = b.X
	}

	minY := a.Y
	if b.Y < minY {
		minY = b.Y
	}

	maxX := a.X + a.Width
	if b.X+b.Width > maxX {
		maxX = b.X + b.Width
	}

	maxY := a.Y + a.Height
	if b.Y+b.Height > maxY {
		maxY = b.Y + b.Height
	}

	return Area{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// LineBounds calculates the bounding box of a line, padded by half its stroke width
// so round caps stay inside.
func LineBounds(l Line) Area {
	if len(l.Points) == 0 {
		return Area{}
	}

	minX, minY := l.Points[0].X, l.Points[0].Y
	maxX, maxY := l.Points[0].X, l.Points[0].Y

	for _, point := range l.Points {
		if point.X < minX {
			minX = point.X
		}
		if point.X > maxX {
			maxX = point.X
		}
		if point.Y < minY {
			minY = point.Y
		}
		if point.Y > maxY {
			maxY = point.Y
		}
	}

	padding := l.StrokeWidth / 2
	return Area{
		X:      minX - padding,
		Y:      minY - padding,
		Width:  maxX - minX + 2*padding,
		Height: maxY - minY + 2*padding,
	}
}

// BoardBounds merges the bounds of every drawn line. Erase strokes only remove ink,
// so they never grow the board.
func BoardBounds(lines []Line) (Area, bool) {
	var (
		bounds Area
		found  bool
	)
	for _, l := range lines {
		if l.CompositeMode == CompositeErase || len(l.Points) == 0 {
			continue
		}
		b := LineBounds(l)
		if !found {
			bounds, found = b, true
			continue
		}
		bounds = bounds.Union(b)
	}
	return bounds, found
}

package models

// Rect describes screen-space bounds in CSS pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenteredRect returns a w×h rect centred in a viewport of the given size
func CenteredRect(viewportWidth, viewportHeight, w, h float64) Rect {
	return Rect{
		X:      viewportWidth/2 - w/2,
		Y:      viewportHeight/2 - h/2,
		Width:  w,
		Height: h,
	}
}

// IsZero reports whether the rect has no area
func (r Rect) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// AnimationTarget holds the bounds of a single token flight.
// It only exists while an earn animation is in flight.
type AnimationTarget struct {
	From Rect `json:"from"`
	To   Rect `json:"to"`
	Slot int  `json:"slot"`
}

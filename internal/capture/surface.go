package capture

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// DefaultTargetCount is the number of butterflies on a surface
	DefaultTargetCount = 8

	// FrameInterval is the time one Step represents
	FrameInterval = 50 * time.Millisecond

	minBound     = 5.0
	maxBound     = 85.0
	clampMin     = 5.1
	clampMax     = 84.9
	spawnMin     = 15.0
	spawnSpread  = 70.0
	turnFirstMin = 50.0
	turnFirstMax = 200.0
	turnNextMin  = 100.0
	turnNextMax  = 200.0
)

// Styles are the butterfly colour schemes the client knows how to draw
var Styles = []string{"pink-purple", "blue-green", "orange-yellow", "teal-cyan", "indigo-violet"}

// Target is one butterfly. Positions are percentages of the viewport.
type Target struct {
	ID            int     `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	VX            float64 `json:"vx"`
	VY            float64 `json:"vy"`
	Caught        bool    `json:"caught"`
	Style         string  `json:"style"`
	SpeedModifier float64 `json:"speed_modifier"`
	TurnIn        float64 `json:"-"`
}

// Surface is a field of moving targets over a camera stream.
// Only the first catch on a surface counts.
type Surface struct {
	mu        sync.Mutex
	rng       *rand.Rand
	targets   []Target
	stream    Stream
	caught    bool
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewSurface creates a surface with n targets and no stream attached
func NewSurface(rng *rand.Rand, n int) *Surface {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if n <= 0 {
		n = DefaultTargetCount
	}

	styles := make([]string, len(Styles))
	copy(styles, Styles)
	rng.Shuffle(len(styles), func(i, j int) { styles[i], styles[j] = styles[j], styles[i] })

	targets := make([]Target, n)
	for i := range targets {
		targets[i] = Target{
			ID:            i,
			X:             rng.Float64()*spawnSpread + spawnMin,
			Y:             rng.Float64()*spawnSpread + spawnMin,
			VX:            (rng.Float64() - 0.5) * 2,
			VY:            (rng.Float64() - 0.5) * 2,
			Style:         styles[i%len(styles)],
			SpeedModifier: rng.Float64()*0.5 + 0.75,
			TurnIn:        rng.Float64()*(turnFirstMax-turnFirstMin) + turnFirstMin,
		}
	}

	return &Surface{rng: rng, targets: targets}
}

// Open acquires a stream from camera and returns a populated surface.
// ErrCameraDenied is passed through unwrapped.
func Open(ctx context.Context, camera Camera, rng *rand.Rand, n int) (*Surface, error) {
	stream, err := camera.Acquire(ctx)
	if err != nil {
		if err == ErrCameraDenied {
			return nil, err
		}
		return nil, fmt.Errorf("failed to acquire camera: %w", err)
	}
	s := NewSurface(rng, n)
	s.stream = stream
	return s, nil
}

// Targets returns a copy of the current targets
func (s *Surface) Targets() []Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// Step advances every free target by one frame
func (s *Surface) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for i := range s.targets {
		t := &s.targets[i]
		if t.Caught {
			continue
		}

		x := t.X + t.VX*t.SpeedModifier
		y := t.Y + t.VY*t.SpeedModifier

		if x < minBound || x > maxBound {
			t.VX = -t.VX
			x = clamp(x)
		}
		if y < minBound || y > maxBound {
			t.VY = -t.VY
			y = clamp(y)
		}
		t.X, t.Y = x, y

		t.TurnIn--
		if t.TurnIn <= 0 {
			angle := s.rng.Float64() * 2 * math.Pi
			speed := 0.8 + s.rng.Float64()*0.5
			t.VX = math.Cos(angle) * speed
			t.VY = math.Sin(angle) * speed
			t.TurnIn = s.rng.Float64()*(turnNextMax-turnNextMin) + turnNextMin
		}
	}
}

// Catch marks target id as caught. It returns true only for the first
// catch on the surface.
func (s *Surface) Catch(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.caught || id < 0 || id >= len(s.targets) {
		return false
	}
	s.targets[id].Caught = true
	s.caught = true
	return true
}

// HasCatch reports whether a target has been caught
func (s *Surface) HasCatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caught
}

// Closed reports whether Close has been called
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the camera stream. Safe to call more than once.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		stream := s.stream
		s.mu.Unlock()
		if stream != nil {
			s.closeErr = stream.Close()
		}
	})
	return s.closeErr
}

func clamp(v float64) float64 {
	return math.Max(clampMin, math.Min(clampMax, v))
}

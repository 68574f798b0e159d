package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"readingquest/internal/capture"
	"readingquest/internal/models"
)

// CameraDeniedNotice is shown when the reader refuses camera access
const CameraDeniedNotice = "Camera access is needed to catch butterflies! Please allow access and try again."

// DefaultCatchDelay lets the catch animation play before the token flies
const DefaultCatchDelay = 500 * time.Millisecond

const originSize = 50.0

var ErrNoCaptureSurface = errors.New("no capture surface open")

// CaptureBridge turns the single catch of a capture surface into exactly one
// earn request on its session
type CaptureBridge struct {
	mu         sync.Mutex
	machine    *SessionMachine
	sched      Scheduler
	rng        *rand.Rand
	targets    int
	catchDelay time.Duration
	origin     models.Rect
	surface    *capture.Surface

	nextCatch int
	pending   map[int]Timer
}

// NewCaptureBridge creates a bridge that synthesises catch origins at the
// centre of a viewport of the given size
func NewCaptureBridge(machine *SessionMachine, sched Scheduler, rng *rand.Rand, viewportWidth, viewportHeight float64) *CaptureBridge {
	if sched == nil {
		sched = RealScheduler{}
	}
	return &CaptureBridge{
		machine:    machine,
		sched:      sched,
		rng:        rng,
		targets:    capture.DefaultTargetCount,
		catchDelay: DefaultCatchDelay,
		origin:     models.CenteredRect(viewportWidth, viewportHeight, originSize, originSize),
		pending:    make(map[int]Timer),
	}
}

// Open starts a capture surface on camera. A denied camera closes the
// surface again, logs a notice to the session and leaves it untouched.
func (b *CaptureBridge) Open(ctx context.Context, camera capture.Camera) (*capture.Surface, error) {
	b.machine.InitAudio()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface != nil {
		b.surface.Close()
		b.surface = nil
	}

	surface, err := capture.Open(ctx, camera, b.rng, b.targets)
	if err != nil {
		if errors.Is(err, capture.ErrCameraDenied) {
			log.Printf("Camera denied for session %s", b.machine.ID())
			b.machine.Events().Append(Event{Kind: EventCaptureClosed, Notice: CameraDeniedNotice})
		}
		return nil, err
	}

	b.surface = surface
	return surface, nil
}

// Surface returns the open surface, if any
func (b *CaptureBridge) Surface() (*capture.Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface == nil {
		return nil, ErrNoCaptureSurface
	}
	return b.surface, nil
}

// Catch marks a target on the open surface. The first catch closes the
// surface and, after the catch delay, asks the session for a token.
func (b *CaptureBridge) Catch(targetID int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return false, ErrNoCaptureSurface
	}
	if !b.surface.Catch(targetID) {
		return false, nil
	}

	surface := b.surface
	origin := b.origin
	gen := b.machine.Generation()
	id := b.nextCatch
	b.nextCatch++
	b.pending[id] = b.sched.AfterFunc(b.catchDelay, func() {
		b.finishCatch(id, surface, origin, gen)
	})
	return true, nil
}

// Close releases the open surface without earning anything. Catches still
// waiting out their delay are cancelled.
func (b *CaptureBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, timer := range b.pending {
		timer.Stop()
		delete(b.pending, id)
	}
	if b.surface != nil {
		b.surface.Close()
		b.surface = nil
	}
}

func (b *CaptureBridge) finishCatch(id int, surface *capture.Surface, origin models.Rect, gen uint64) {
	b.mu.Lock()
	if _, ok := b.pending[id]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.pending, id)
	if b.surface == surface {
		b.surface = nil
	}
	b.mu.Unlock()

	surface.Close()
	b.machine.Events().Append(Event{Kind: EventCaptureClosed})

	if !b.machine.requestCatchInGeneration(gen, &origin) {
		log.Printf("Catch ignored for session %s: session busy or reset", b.machine.ID())
	}
}

package service

import (
	"sync"

	"readingquest/internal/models"
)

const slotSize = 64.0

// SlotLayout resolves where each token slot sits on screen
type SlotLayout interface {
	SlotRect(index int) (models.Rect, bool)
}

// BoardLayout holds the slot rects of one board. It starts from a row of
// evenly spaced slots across the viewport until the client reports the
// rendered positions.
type BoardLayout struct {
	mu    sync.RWMutex
	slots []models.Rect
}

// NewBoardLayout lays out count slots in a row a third of the way down the viewport
func NewBoardLayout(count int, viewportWidth, viewportHeight float64) *BoardLayout {
	slots := make([]models.Rect, count)
	if viewportWidth > 0 && viewportHeight > 0 {
		gap := viewportWidth / float64(count+1)
		for i := range slots {
			slots[i] = models.Rect{
				X:      gap*float64(i+1) - slotSize/2,
				Y:      viewportHeight/3 - slotSize/2,
				Width:  slotSize,
				Height: slotSize,
			}
		}
	}
	return &BoardLayout{slots: slots}
}

// SlotRect returns the rect of slot index, or false if it is unknown
func (l *BoardLayout) SlotRect(index int) (models.Rect, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.slots) || l.slots[index].IsZero() {
		return models.Rect{}, false
	}
	return l.slots[index], true
}

// SetSlots replaces the rects with the positions measured by the client
func (l *BoardLayout) SetSlots(slots []models.Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots = append([]models.Rect(nil), slots...)
}

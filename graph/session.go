package graph

import (
	"time"
)

// Session describes who is editing against which server. It replaces any global state the editor would otherwise
// consult.
type Session struct {
	User   string
	UserID int64
	Server string

	// Now returns the current time. When nil, time.Now is used.
	Now func() time.Time
}

func (s Session) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Policy holds tuning values of the store.
type Policy struct {
	// DiscardFraction is the share of downloaded quads dropped by every DiscardStaleData call.
	DiscardFraction float64
	// MaxQuadAge is the age after which downloaded quads are always dropped by DiscardStaleData.
	MaxQuadAge time.Duration
	// IndexCapacity is the number of objects per quad before the object index splits it.
	IndexCapacity int
	// MaxWayNodes is the largest number of nodes an edit may produce in one way.
	MaxWayNodes int
	// Debug enables the exhaustive consistency check after every commit, undo and redo.
	Debug bool
}

func DefaultPolicy() Policy {
	return Policy{
		DiscardFraction: 0.3,
		MaxQuadAge:      7 * 24 * time.Hour,
		IndexCapacity:   40,
		MaxWayNodes:     2000,
		Debug:           false,
	}
}

package collector

import (
	"sync/atomic"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// Latest is the single publish point for the newest snapshot array.
// Store swaps the whole array; readers see either the old or the new one.
type Latest struct {
	p atomic.Pointer[[]models.Snapshot]
}

// Store publishes snaps. The caller must not modify snaps afterwards.
func (l *Latest) Store(snaps []models.Snapshot) {
	l.p.Store(&snaps)
}

// Load returns the published array, or nil before the first Store.
// The result is shared and must be treated as read-only.
func (l *Latest) Load() []models.Snapshot {
	if p := l.p.Load(); p != nil {
		return *p
	}
	return nil
}

package dashboard

import (
	"errors"
	"sync"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// ErrUnknownBand is returned when toggling a band that has never been aggregated
var ErrUnknownBand = errors.New("unknown band")

// View tracks which bands are drawn. Bands start visible when first seen.
type View struct {
	mu      sync.RWMutex
	visible map[models.BandKey]bool
}

// NewView creates an empty view
func NewView() *View {
	return &View{visible: make(map[models.BandKey]bool)}
}

// Sync registers bands not yet known as visible; existing choices are kept
func (v *View) Sync(bands []models.BandKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, b := range bands {
		if _, ok := v.visible[b]; !ok {
			v.visible[b] = true
		}
	}
}

// Visible reports whether key is drawn. Unknown keys are visible.
func (v *View) Visible(key models.BandKey) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	vis, ok := v.visible[key]
	return !ok || vis
}

// Toggle flips a band and returns its new state
func (v *View) Toggle(key models.BandKey) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vis, ok := v.visible[key]
	if !ok {
		return false, ErrUnknownBand
	}
	v.visible[key] = !vis
	return !vis, nil
}

// ShowAll makes every known band visible
func (v *View) ShowAll() {
	v.setAll(true)
}

// HideAll hides every known band
func (v *View) HideAll() {
	v.setAll(false)
}

func (v *View) setAll(vis bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k := range v.visible {
		v.visible[k] = vis
	}
}

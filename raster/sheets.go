package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/milk9111/paperdoll/assets"
	"github.com/milk9111/paperdoll/compositor"
)

var ErrSheetNotFound = errors.New("raster: sheet not registered")

// Sheets is a keyed registry of decoded spritesheets.
type Sheets struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

func NewSheets() *Sheets {
	return &Sheets{images: make(map[string]image.Image)}
}

// Register stores img under id, replacing any previous image.
func (s *Sheets) Register(id string, img image.Image) {
	if id == "" || img == nil {
		return
	}
	s.mu.Lock()
	s.images[id] = img
	s.mu.Unlock()
}

// Load decodes the asset at path (embedded first, then disk) and registers it
// under the same path.
func (s *Sheets) Load(paths ...string) error {
	for _, p := range paths {
		img, err := assets.LoadImage(p)
		if err != nil {
			return fmt.Errorf("raster: load %s: %w", p, err)
		}
		s.Register(p, img)
	}
	return nil
}

// Sheet implements compositor.SheetProvider.
func (s *Sheets) Sheet(id string) (compositor.Source, error) {
	s.mu.RLock()
	img, ok := s.images[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, id)
	}
	return img, nil
}

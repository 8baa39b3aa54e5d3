package screen

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/paperdoll/assets"
	"github.com/milk9111/paperdoll/compositor"
)

var ErrSheetNotFound = errors.New("screen: sheet not registered")

// Sheets caches ebiten images by key.
type Sheets struct {
	mu     sync.RWMutex
	images map[string]*ebiten.Image
}

func NewSheets() *Sheets {
	return &Sheets{images: make(map[string]*ebiten.Image)}
}

// RegisterImage stores an image by key.
func (s *Sheets) RegisterImage(key string, img *ebiten.Image) {
	if key == "" || img == nil {
		return
	}
	s.mu.Lock()
	s.images[key] = img
	s.mu.Unlock()
}

// Register uploads a decoded image and stores it by key.
func (s *Sheets) Register(key string, img image.Image) {
	if img == nil {
		return
	}
	s.RegisterImage(key, ebiten.NewImageFromImage(img))
}

// LoadImage loads an image from assets or the filesystem and caches it by key.
func (s *Sheets) LoadImage(key string) (*ebiten.Image, error) {
	if key == "" {
		return nil, fmt.Errorf("empty image key")
	}
	if img := s.GetImage(key); img != nil {
		return img, nil
	}
	decoded, err := assets.LoadImage(key)
	if err != nil {
		return nil, err
	}
	img := ebiten.NewImageFromImage(decoded)
	s.RegisterImage(key, img)
	return img, nil
}

// GetImage returns a cached image by key.
func (s *Sheets) GetImage(key string) *ebiten.Image {
	if key == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images[key]
}

// Sheet implements compositor.SheetProvider. Unknown keys are loaded on first
// use so hot-reloaded appearances can name new sheets.
func (s *Sheets) Sheet(id string) (compositor.Source, error) {
	img, err := s.LoadImage(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSheetNotFound, id, err)
	}
	return img, nil
}

package usecase

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/hszk-dev/reelstream/internal/domain/model"
)

// OverlayProvider supplies the informational overlay for a video.
type OverlayProvider interface {
	OverlayFor(video model.Video) model.Overlay
}

// RandomOverlayProvider fills overlays with placeholder counters.
// Values are drawn once per video so repeated reads are stable.
type RandomOverlayProvider struct {
	rng *rand.Rand

	mu       sync.Mutex
	overlays map[string]model.Overlay
}

// NewRandomOverlayProvider creates a provider seeded with seed.
func NewRandomOverlayProvider(seed uint64) *RandomOverlayProvider {
	return &RandomOverlayProvider{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		overlays: make(map[string]model.Overlay),
	}
}

func (p *RandomOverlayProvider) OverlayFor(video model.Video) model.Overlay {
	p.mu.Lock()
	defer p.mu.Unlock()

	if o, ok := p.overlays[video.ID]; ok {
		return o
	}

	o := model.Overlay{
		Caption:  fmt.Sprintf("Clip %s", shortID(video.ID)),
		Music:    "Original sound",
		Likes:    p.rng.IntN(100_000),
		Comments: p.rng.IntN(5_000),
		Shares:   p.rng.IntN(1_000),
	}
	p.overlays[video.ID] = o
	return o
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

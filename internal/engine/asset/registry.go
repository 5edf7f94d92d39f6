package asset

import (
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/logger"
)

// Registry owns the loaded asset packs, partitioned by render pass:
// opaque packs draw first, then the blending ones.
type Registry struct {
	opaque      []*Pack
	transparent []*Pack
}

func NewRegistry() *Registry { return &Registry{} }

// Add files the pack into its render bucket.
func (r *Registry) Add(pack *Pack) {
	if pack.Transparent() {
		r.transparent = append(r.transparent, pack)
		return
	}
	r.opaque = append(r.opaque, pack)
}

// Opaque returns the packs for the opaque pass, in load order.
func (r *Registry) Opaque() []*Pack { return r.opaque }

// Transparent returns the packs for the blend pass, in load order.
func (r *Registry) Transparent() []*Pack { return r.transparent }

// Len returns the number of loaded packs.
func (r *Registry) Len() int { return len(r.opaque) + len(r.transparent) }

// LoadAll loads every path in order. Any failing asset fails the
// whole load, so nothing half-parsed is ever registered.
func LoadAll(paths []string, device gpu.Device) (*Registry, error) {
	registry := NewRegistry()
	for _, path := range paths {
		pack, err := Load(path, device)
		if err != nil {
			return nil, err
		}
		registry.Add(pack)
		logger.Info("asset loaded",
			zap.String("asset", pack.Name),
			zap.Int("primitives", len(pack.Primitives)),
			zap.Int("vertices", len(pack.Vertices)),
			zap.Bool("transparent", pack.Transparent()))
	}
	return registry, nil
}

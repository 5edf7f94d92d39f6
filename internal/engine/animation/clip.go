package animation

import (
	gomath "math"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/engine/scene"
	"github.com/hollowtree/prism/internal/logger"
)

// Clip is one named animation: every channel of one document animation
// entry, kept in document order.
type Clip struct {
	Name     string
	Channels []*Channel

	targets map[scene.NodeIndex]struct{}
}

// NewClip groups channels under one name and indexes their target
// nodes.
func NewClip(name string, channels []*Channel) *Clip {
	clip := &Clip{
		Name:     name,
		Channels: channels,
		targets:  make(map[scene.NodeIndex]struct{}, len(channels)),
	}
	for _, ch := range channels {
		clip.targets[ch.Node] = struct{}{}
	}
	return clip
}

// Targets reports whether any channel of the clip animates node n.
func (c *Clip) Targets(n scene.NodeIndex) bool {
	_, ok := c.targets[n]
	return ok
}

// ChannelsFor returns the clip channels animating node n, in document
// order.
func (c *Clip) ChannelsFor(n scene.NodeIndex) []*Channel {
	if !c.Targets(n) {
		return nil
	}
	var channels []*Channel
	for _, ch := range c.Channels {
		if ch.Node == n {
			channels = append(channels, ch)
		}
	}
	return channels
}

// ParseClips extracts every animation of the document. Any malformed
// channel fails the whole document; a channel without a target node is
// allowed by the format and is skipped.
func ParseClips(doc *gltf.Document) ([]*Clip, error) {
	clips := make([]*Clip, 0, len(doc.Animations))
	for ai, anim := range doc.Animations {
		var channels []*Channel
		for ci, src := range anim.Channels {
			if src.Target.Node == nil {
				logger.Debug("animation channel has no target node",
					zap.Int("animation", ai),
					zap.Int("channel", ci))
				continue
			}
			ch, err := parseChannel(doc, anim, src)
			if err != nil {
				return nil, errors.Wrapf(err, "animation %d channel %d", ai, ci)
			}
			channels = append(channels, ch)
		}
		clips = append(clips, NewClip(anim.Name, channels))
	}
	return clips, nil
}

func parseChannel(doc *gltf.Document, anim *gltf.Animation, src *gltf.Channel) (*Channel, error) {
	target := *src.Target.Node
	if int(target) >= len(doc.Nodes) {
		return nil, errors.Errorf("target node %d out of range (%d nodes)", target, len(doc.Nodes))
	}

	var kind Kind
	switch src.Target.Path {
	case gltf.TRSTranslation:
		kind = KindTranslation
	case gltf.TRSRotation:
		kind = KindRotation
	case gltf.TRSScale:
		kind = KindScale
	case gltf.TRSWeights:
		return nil, ErrMorphTargets
	default:
		return nil, errors.Errorf("unknown target path %d", src.Target.Path)
	}

	if src.Sampler == nil || int(*src.Sampler) >= len(anim.Samplers) {
		return nil, errors.New("sampler reference out of range")
	}
	sampler := anim.Samplers[*src.Sampler]

	var mode Mode
	switch sampler.Interpolation {
	case gltf.InterpolationLinear:
		mode = ModeLinear
	case gltf.InterpolationStep:
		mode = ModeStep
	case gltf.InterpolationCubicSpline:
		mode = ModeCubicSpline
	default:
		return nil, errors.Errorf("unknown interpolation %d", sampler.Interpolation)
	}

	times, err := readTimes(doc, sampler.Input)
	if err != nil {
		return nil, errors.Wrap(err, "sampler input")
	}
	data, err := readValues(doc, sampler.Output, kind)
	if err != nil {
		return nil, errors.Wrap(err, "sampler output")
	}

	return NewChannel(scene.NodeIndex(target), kind, mode, times, data)
}

// readTimes decodes the keyframe timestamps. A normalized input
// accessor stores times rescaled into the unit interval; rebuild that
// scale from the observed range.
func readTimes(doc *gltf.Document, index *uint32) ([]float32, error) {
	acc, err := accessorAt(doc, index)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadAccessor(doc, acc, nil)
	if err != nil {
		return nil, err
	}
	times, ok := raw.([]float32)
	if !ok {
		return nil, errors.Errorf("keyframe times must be float scalars, got %T", raw)
	}
	if acc.Normalized && len(times) > 0 {
		lo, hi := times[0], times[0]
		for _, t := range times[1:] {
			lo, hi = min(lo, t), max(hi, t)
		}
		if r := hi - lo; r > 0 {
			for i, t := range times {
				times[i] = (t - lo) / r
			}
		}
	}
	return times, nil
}

// readValues decodes sampler output into a flat float stream. A
// normalized output accessor stores direction-like data, so each
// element is rescaled to unit length after decoding.
func readValues(doc *gltf.Document, index *uint32, kind Kind) ([]float32, error) {
	acc, err := accessorAt(doc, index)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadAccessor(doc, acc, nil)
	if err != nil {
		return nil, err
	}

	var data []float32
	switch v := raw.(type) {
	case [][3]float32:
		if kind == KindRotation {
			return nil, errors.New("rotation sampler output must be vec4")
		}
		data = make([]float32, 0, len(v)*3)
		for _, e := range v {
			data = append(data, e[0], e[1], e[2])
		}
	case [][4]float32:
		if kind != KindRotation {
			return nil, errors.Errorf("%s sampler output must be vec3", kind)
		}
		data = make([]float32, 0, len(v)*4)
		for _, e := range v {
			data = append(data, e[0], e[1], e[2], e[3])
		}
	default:
		return nil, errors.Errorf("sampler output must be float vectors, got %T", raw)
	}

	if acc.Normalized {
		normalize(data, kind.components())
	}
	return data, nil
}

// normalize rescales each stride-sized element to unit length.
func normalize(data []float32, stride int) {
	for i := 0; i+stride <= len(data); i += stride {
		var sq float32
		for _, c := range data[i : i+stride] {
			sq += c * c
		}
		if sq == 0 {
			continue
		}
		inv := 1 / float32(gomath.Sqrt(float64(sq)))
		for j := i; j < i+stride; j++ {
			data[j] *= inv
		}
	}
}

func accessorAt(doc *gltf.Document, index *uint32) (*gltf.Accessor, error) {
	if index == nil {
		return nil, errors.New("accessor reference missing")
	}
	if int(*index) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range (%d accessors)", *index, len(doc.Accessors))
	}
	return doc.Accessors[*index], nil
}

// Package animation extracts keyframe channels from a glTF document
// and samples node properties by elapsed time. Playback always loops:
// a channel evaluated past its last keyframe wraps around to the
// beginning.
package animation

import (
	gomath "math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/hollowtree/prism/internal/engine/scene"
)

// Declared by the asset format but not implemented here.
var (
	ErrCubicSpline  = errors.New("cubic spline interpolation not supported")
	ErrMorphTargets = errors.New("morph target weights not supported")
)

// Kind is the node property a channel animates.
type Kind uint8

const (
	KindTranslation Kind = iota
	KindRotation
	KindScale
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindRotation:
		return "rotation"
	case KindScale:
		return "scale"
	}
	return "unknown"
}

// components returns the number of floats stored per keyframe.
func (k Kind) components() int {
	if k == KindRotation {
		return 4
	}
	return 3
}

// Mode is the interpolation applied between keyframes.
type Mode uint8

const (
	ModeLinear Mode = iota
	ModeStep
	ModeCubicSpline
)

func (m Mode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeStep:
		return "step"
	case ModeCubicSpline:
		return "cubic-spline"
	}
	return "unknown"
}

// Value is one sampled property value. Vec carries translation and
// scale samples, Quat carries rotation samples.
type Value struct {
	Kind Kind
	Vec  mgl32.Vec3
	Quat mgl32.Quat
}

// Matrix returns the sampled value as a transform.
func (v Value) Matrix() mgl32.Mat4 {
	switch v.Kind {
	case KindTranslation:
		return mgl32.Translate3D(v.Vec.X(), v.Vec.Y(), v.Vec.Z())
	case KindRotation:
		return v.Quat.Mat4()
	default:
		return mgl32.Scale3D(v.Vec.X(), v.Vec.Y(), v.Vec.Z())
	}
}

// Channel is one keyframe track targeting a single node property.
// Times is strictly increasing and data holds components() floats per
// keyframe. Channels are built once at load time and are read-only
// during playback.
type Channel struct {
	Node     scene.NodeIndex
	Kind     Kind
	Mode     Mode
	Times    []float32
	Duration float32

	data []float32
}

// NewChannel builds a channel from decoded keyframe data. times must
// be non-empty and strictly increasing. data holds one value per
// keyframe, except for cubic samplers which store three (in-tangent,
// value, out-tangent).
func NewChannel(node scene.NodeIndex, kind Kind, mode Mode, times, data []float32) (*Channel, error) {
	if len(times) == 0 {
		return nil, errors.New("no keyframes")
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, errors.Errorf("keyframe times not strictly increasing at index %d", i)
		}
	}

	want := len(times) * kind.components()
	if mode == ModeCubicSpline {
		want *= 3
	}
	if len(data) != want {
		return nil, errors.Errorf("sampler output holds %d floats, want %d", len(data), want)
	}

	return &Channel{
		Node:     node,
		Kind:     kind,
		Mode:     mode,
		Times:    times,
		Duration: times[len(times)-1],
		data:     data,
	}, nil
}

// Sample returns the stored keyframe value at index i with no
// blending.
func (c *Channel) Sample(i int) Value {
	v := Value{Kind: c.Kind}
	base := i * c.Kind.components()
	if c.Kind == KindRotation {
		v.Quat = mgl32.Quat{
			W: c.data[base+3],
			V: mgl32.Vec3{c.data[base], c.data[base+1], c.data[base+2]},
		}
		return v
	}
	v.Vec = mgl32.Vec3{c.data[base], c.data[base+1], c.data[base+2]}
	return v
}

// Interpolate samples the channel at elapsed seconds t, reduced modulo
// the channel duration. A timestamp landing exactly on a keyframe
// returns the stored sample with no blending.
func (c *Channel) Interpolate(t float32) (Value, error) {
	if c.Mode == ModeCubicSpline {
		return Value{}, errors.Wrapf(ErrCubicSpline, "%s channel on node %d", c.Kind, c.Node)
	}

	tm := t
	if c.Duration > 0 {
		tm = float32(gomath.Mod(float64(t), float64(c.Duration)))
	}

	n := len(c.Times)
	i := sort.Search(n, func(i int) bool { return c.Times[i] >= tm })
	switch {
	case i < n && c.Times[i] == tm:
		return c.Sample(i), nil
	case i == 0:
		// Before the first keyframe, which only happens when the track
		// starts after zero. Hold the first sample until then.
		return c.Sample(0), nil
	case i == n:
		return c.Sample(n - 1), nil
	}

	left := i - 1
	if c.Mode == ModeStep {
		return c.Sample(left), nil
	}

	factor := (tm - c.Times[left]) / (c.Times[left+1] - c.Times[left])
	a, b := c.Sample(left), c.Sample(left+1)
	v := Value{Kind: c.Kind}
	if c.Kind == KindRotation {
		v.Quat = mgl32.QuatSlerp(a.Quat, b.Quat, factor)
		return v, nil
	}
	v.Vec = a.Vec.Mul(1 - factor).Add(b.Vec.Mul(factor))
	return v, nil
}

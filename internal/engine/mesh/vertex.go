package mesh

import (
	"encoding/binary"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// FeatureMask records which vertex attributes the source document
// actually supplied. Every vertex of one primitive shares the same
// mask; the shaders branch on it to skip defaulted channels.
type FeatureMask uint32

const (
	FeaturePosition FeatureMask = 1 << iota
	FeatureNormal
	FeatureTexCoord0
	FeatureTexCoord1
	FeatureTangent
	FeatureWeights
	FeatureJoints
	FeatureColor
)

// Has reports whether every bit of f is set.
func (m FeatureMask) Has(f FeatureMask) bool { return m&f == f }

// Stride is the byte size of one packed vertex. Fields sit on 16-byte
// boundaries so the packed layout matches the WGSL struct rules.
const Stride = 128

// Byte offsets of each attribute within the packed vertex.
const (
	OffsetPosition  = 0
	OffsetNormal    = 16
	OffsetTexCoord0 = 32
	OffsetTexCoord1 = 40
	OffsetTangent   = 48
	OffsetWeights   = 64
	OffsetJoints    = 80
	OffsetColor     = 96
	OffsetFeatures  = 112
)

// Vertex is one assembled GPU vertex. Tangent w holds the handedness
// sign; Joints are widened from the format's 16-bit indices.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoord0 mgl32.Vec2
	TexCoord1 mgl32.Vec2
	Tangent   mgl32.Vec4
	Weights   mgl32.Vec4
	Joints    [4]uint32
	Color     mgl32.Vec4
	Features  FeatureMask
}

// Encode appends the vertex in packed little-endian form.
func (v *Vertex) Encode(dst []byte) []byte {
	var buf [Stride]byte

	putFloats(buf[OffsetPosition:], v.Position[:])
	putFloats(buf[OffsetNormal:], v.Normal[:])
	putFloats(buf[OffsetTexCoord0:], v.TexCoord0[:])
	putFloats(buf[OffsetTexCoord1:], v.TexCoord1[:])
	putFloats(buf[OffsetTangent:], v.Tangent[:])
	putFloats(buf[OffsetWeights:], v.Weights[:])
	for i, j := range v.Joints {
		binary.LittleEndian.PutUint32(buf[OffsetJoints+i*4:], j)
	}
	putFloats(buf[OffsetColor:], v.Color[:])
	binary.LittleEndian.PutUint32(buf[OffsetFeatures:], uint32(v.Features))

	return append(dst, buf[:]...)
}

// EncodeVertices packs a vertex slice into one contiguous stream.
func EncodeVertices(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*Stride)
	for i := range vertices {
		out = vertices[i].Encode(out)
	}
	return out
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], gomath.Float32bits(f))
	}
}

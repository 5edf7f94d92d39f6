package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/logger"
)

// generateTangents derives a tangent frame per vertex from the
// UV-space gradients of the triangle topology. Accumulation is
// unnormalized per face, so larger triangles weigh more; the result is
// orthogonalized against the vertex normal and the handedness sign
// lands in the tangent w component.
//
// Topology comes from the index buffer when present, otherwise from
// implicit sequential triples. A topology that does not split into
// whole triangles is logged and left with default tangents.
func generateTangents(vertices []Vertex, indices []uint32) {
	if len(vertices) == 0 {
		return
	}
	if indices == nil && len(vertices)%3 != 0 {
		logger.Warn("tangent generation skipped: vertex count is not a triangle multiple",
			zap.Int("vertices", len(vertices)))
		return
	}
	if indices != nil && len(indices)%3 != 0 {
		logger.Warn("tangent generation skipped: index count is not a triangle multiple",
			zap.Int("indices", len(indices)))
		return
	}

	faceCount := len(vertices) / 3
	if indices != nil {
		faceCount = len(indices) / 3
	}
	corner := func(face, i int) int {
		if indices != nil {
			return int(indices[face*3+i])
		}
		return face*3 + i
	}

	uv := func(v *Vertex) mgl32.Vec2 {
		if v.Features.Has(FeatureTexCoord0) {
			return v.TexCoord0
		}
		return v.TexCoord1
	}

	tan := make([]mgl32.Vec3, len(vertices))
	bitan := make([]mgl32.Vec3, len(vertices))

	for face := 0; face < faceCount; face++ {
		i0, i1, i2 := corner(face, 0), corner(face, 1), corner(face, 2)
		if i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			logger.Warn("tangent generation skipped: index out of range",
				zap.Int("face", face))
			return
		}
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		uv0, uv1, uv2 := uv(v0), uv(v1), uv(v2)
		x1, y1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
		x2, y2 := uv2[0]-uv0[0], uv2[1]-uv0[1]

		den := x1*y2 - x2*y1
		if den == 0 {
			// Degenerate UV mapping contributes nothing.
			continue
		}
		r := 1 / den

		t := e1.Mul(y2).Sub(e2.Mul(y1)).Mul(r)
		b := e2.Mul(x1).Sub(e1.Mul(x2)).Mul(r)
		for _, i := range [3]int{i0, i1, i2} {
			tan[i] = tan[i].Add(t)
			bitan[i] = bitan[i].Add(b)
		}
	}

	for i := range vertices {
		v := &vertices[i]
		n := v.Normal
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Dot(t) < 1e-12 {
			// No usable gradient accumulated; keep the default frame.
			continue
		}
		t = t.Normalize()

		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		v.Tangent = mgl32.Vec4{t[0], t[1], t[2], w}
	}
}

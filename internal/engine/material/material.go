// Package material converts glTF material definitions into the flat
// shading parameters the render pipelines consume.
package material

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// AlphaMode controls how a primitive's alpha channel is treated when
// the primitive is drawn.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaOpaque:
		return "opaque"
	case AlphaMask:
		return "mask"
	case AlphaBlend:
		return "blend"
	}
	return "unknown"
}

// TextureRef points at an image blob of the document plus the UV set
// used to sample it. Draw records bind decoded images directly, so
// the reference skips the document's texture indirection.
type TextureRef struct {
	Image uint32
	UVSet uint32
}

// MetallicRoughness holds the metalness workflow parameters.
type MetallicRoughness struct {
	Metallic  float32
	Roughness float32
	Texture   *TextureRef
}

// Material is the resolved shading state for one primitive.
type Material struct {
	Color     [4]float32
	Emissive  [3]float32
	Occlusion float32

	ColorTexture     *TextureRef
	EmissiveTexture  *TextureRef
	NormalTexture    *TextureRef
	OcclusionTexture *TextureRef

	MetallicRoughness MetallicRoughness

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
}

// Default returns the material used when a primitive has none
// assigned. Occlusion stays at zero: a non-zero strength only means
// something once an occlusion texture exists.
func Default() Material {
	return Material{
		Color:       [4]float32{1, 1, 1, 1},
		AlphaCutoff: 0.5,
		MetallicRoughness: MetallicRoughness{
			Metallic:  1,
			Roughness: 1,
		},
	}
}

// Parse resolves the material at index, or the default material when
// the primitive declares none.
func Parse(doc *gltf.Document, index *uint32) (Material, error) {
	if index == nil {
		return Default(), nil
	}
	if int(*index) >= len(doc.Materials) {
		return Material{}, errors.Errorf("material %d out of range (%d materials)", *index, len(doc.Materials))
	}
	src := doc.Materials[*index]

	out := Default()
	out.Emissive = src.EmissiveFactor
	out.DoubleSided = src.DoubleSided
	out.AlphaCutoff = src.AlphaCutoffOrDefault()

	switch src.AlphaMode {
	case gltf.AlphaMask:
		out.AlphaMode = AlphaMask
	case gltf.AlphaBlend:
		out.AlphaMode = AlphaBlend
	default:
		out.AlphaMode = AlphaOpaque
	}

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		out.Color = pbr.BaseColorFactorOrDefault()
		out.MetallicRoughness.Metallic = pbr.MetallicFactorOrDefault()
		out.MetallicRoughness.Roughness = pbr.RoughnessFactorOrDefault()

		if tex := pbr.BaseColorTexture; tex != nil {
			ref, err := resolveTexture(doc, tex.Index, tex.TexCoord)
			if err != nil {
				return Material{}, errors.Wrap(err, "base color")
			}
			out.ColorTexture = ref
		}
		if tex := pbr.MetallicRoughnessTexture; tex != nil {
			ref, err := resolveTexture(doc, tex.Index, tex.TexCoord)
			if err != nil {
				return Material{}, errors.Wrap(err, "metallic roughness")
			}
			out.MetallicRoughness.Texture = ref
		}
	}

	if tex := src.NormalTexture; tex != nil && tex.Index != nil {
		ref, err := resolveTexture(doc, *tex.Index, tex.TexCoord)
		if err != nil {
			return Material{}, errors.Wrap(err, "normal")
		}
		out.NormalTexture = ref
	}
	if tex := src.OcclusionTexture; tex != nil && tex.Index != nil {
		ref, err := resolveTexture(doc, *tex.Index, tex.TexCoord)
		if err != nil {
			return Material{}, errors.Wrap(err, "occlusion")
		}
		out.OcclusionTexture = ref
		out.Occlusion = tex.StrengthOrDefault()
	}
	if tex := src.EmissiveTexture; tex != nil {
		ref, err := resolveTexture(doc, tex.Index, tex.TexCoord)
		if err != nil {
			return Material{}, errors.Wrap(err, "emissive")
		}
		out.EmissiveTexture = ref
	}

	return out, nil
}

// resolveTexture follows a texture reference through to its backing
// image.
func resolveTexture(doc *gltf.Document, texture, uvSet uint32) (*TextureRef, error) {
	if int(texture) >= len(doc.Textures) {
		return nil, errors.Errorf("texture %d out of range (%d textures)", texture, len(doc.Textures))
	}
	source := doc.Textures[texture].Source
	if source == nil {
		return nil, errors.Errorf("texture %d has no image source", texture)
	}
	if int(*source) >= len(doc.Images) {
		return nil, errors.Errorf("texture %d: image %d out of range (%d images)", texture, *source, len(doc.Images))
	}
	return &TextureRef{Image: *source, UVSet: uvSet}, nil
}

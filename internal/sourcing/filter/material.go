package filter

import (
	"sort"
	"strings"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

var syntheticMaterials = []string{
	"plastic", "polymer", "polyester", "polyurethane", "polypropylene", "polyethylene",
	"polycarbonate", "pvc", "vinyl", "nylon", "acrylic", "spandex", "lycra", "elastane",
	"faux leather", "faux-leather", "fake leather", "synthetic leather", "vegan leather",
	"pleather", "leatherette", "pu leather", "pu-leather", "polyurethane leather",
	"pu", "pet", "pp", "pe",
	"rayon", "microfiber", "fiberboard", "particle board", "particleboard", "melamine",
	"laminate", "laminated", "bonded leather",
	"synthetic fiber", "synthetic fabric", "man-made", "manmade",
}

// ContainsSynthetic reports whether text mentions a synthetic or
// petroleum based material
func ContainsSynthetic(text string) bool {
	text = normalize(text)
	if text == "" {
		return false
	}
	for _, m := range syntheticMaterials {
		if containsTerm(text, m) {
			return true
		}
	}
	return false
}

// MaterialFilter drops offers made of materials the buyer ruled out
type MaterialFilter struct {
	excludeSynthetics bool
	exclude           []string
}

// NewMaterialFilter derives material exclusions from intent attributes:
// a plastic/petroleum/synthetic key answered "no", "without" or "exclude",
// keys of the form "no X", and values of the form "... without X".
func NewMaterialFilter(attrs map[string]string) *MaterialFilter {
	f := &MaterialFilter{}
	custom := make(map[string]struct{})

	for key, value := range attrs {
		key, value = normalize(key), normalize(value)
		if value == "" {
			continue
		}
		if strings.Contains(key, "plastic") || strings.Contains(key, "petroleum") || strings.Contains(key, "synthetic") {
			if strings.Contains(value, "no") || strings.Contains(value, "without") || strings.Contains(value, "exclude") {
				f.excludeSynthetics = true
			}
		}
		if strings.HasPrefix(key, "no ") {
			if m := strings.TrimSpace(key[3:]); m != "" {
				custom[m] = struct{}{}
			}
		}
		if _, after, ok := strings.Cut(value, "without"); ok {
			if m := strings.TrimSpace(after); m != "" {
				custom[m] = struct{}{}
			}
		}
	}

	for m := range custom {
		f.exclude = append(f.exclude, m)
	}
	sort.Strings(f.exclude)
	return f
}

// Name implements Filter
func (f *MaterialFilter) Name() string { return "material" }

// Apply implements Filter
func (f *MaterialFilter) Apply(offers []*types.NormalizedOffer) ([]*types.NormalizedOffer, int) {
	if !f.excludeSynthetics && len(f.exclude) == 0 {
		return offers, 0
	}
	return keep(offers, func(o *types.NormalizedOffer) bool {
		title := normalize(o.Title)
		if title == "" {
			return false
		}
		if f.excludeSynthetics && ContainsSynthetic(title) {
			return true
		}
		for _, m := range f.exclude {
			if strings.Contains(title, m) {
				return true
			}
		}
		return false
	})
}

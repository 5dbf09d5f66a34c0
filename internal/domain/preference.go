package domain

import "context"

// ViewDensity is how tightly the product grid is packed.
type ViewDensity string

const (
	DensityComfortable ViewDensity = "comfortable"
	DensityCompact     ViewDensity = "compact"
	DensityList        ViewDensity = "list"
)

const DefaultViewDensity = DensityComfortable

var ViewDensities = []ViewDensity{
	DensityComfortable,
	DensityCompact,
	DensityList,
}

// ParseViewDensity reports whether s is one of the allowed densities.
func ParseViewDensity(s string) (ViewDensity, bool) {
	for _, d := range ViewDensities {
		if string(d) == s {
			return d, true
		}
	}
	return DefaultViewDensity, false
}

// PreferenceStore is a durable string key-value store. Implementations
// report a missing key as ("", false, nil).
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

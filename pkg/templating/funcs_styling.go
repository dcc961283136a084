package templating

import (
	"fmt"
	"html/template"

	"github.com/cespare/xxhash/v2"
)

// accentColor derives a stable accent colour from a seed string, so the same
// name always produces the same palette across regenerated pages.
func accentColor(seed string) template.CSS {
	hue := xxhash.Sum64String(seed) % 360
	return template.CSS(fmt.Sprintf("hsl(%d, 62%%, 42%%)", hue))
}

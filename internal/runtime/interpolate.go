package runtime

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Interpolate substitutes every occurrence of the input placeholder in template.
// Templates without a placeholder are returned unchanged.
func Interpolate(template, value string) string {
	return strings.ReplaceAll(template, domain.InputPlaceholder, value)
}

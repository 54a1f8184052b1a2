package release

import (
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/releasebot/internal/foundation"
)

// DefaultProduct is the product whose Windows installer name is matched.
const DefaultProduct = "Factorio"

// Extractor finds the release version in manifest text by matching the
// Windows installer entry, e.g. "Setup_Factorio_2.0.57.exe.zip".
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor builds an extractor for product. An empty product means DefaultProduct.
func NewExtractor(product string) *Extractor {
	if product == "" {
		product = DefaultProduct
	}
	expr := fmt.Sprintf(`Setup_%s_(\d+\.\d+\.\d+)\.exe\.zip`, regexp.QuoteMeta(product))
	return &Extractor{pattern: regexp.MustCompile(expr)}
}

// Extract returns the version of the first installer entry in text.
// No match is a normal outcome and yields None.
func (e *Extractor) Extract(text string) foundation.Option[Version] {
	m := e.pattern.FindStringSubmatch(text)
	if m == nil {
		return foundation.None[Version]()
	}
	v, err := ParseVersion(m[1])
	if err != nil {
		// digits that overflow uint64
		return foundation.None[Version]()
	}
	return foundation.Some(v)
}

package catalog

import (
	"regexp"
	"strings"
)

// skuVariantPattern splits "789-M", "789#M" and "789 M" into sku and variant.
var skuVariantPattern = regexp.MustCompile(`^\s*(?P<sku>[^\s\-#]+)\s*[-# ]\s*(?P<var>.+?)\s*$`)

// ParseCode splits a scanned code into sku and an optional variant suffix.
// Codes without a separator come back whole with a nil variant.
func ParseCode(code string) (string, *string) {
	code = strings.TrimSpace(code)
	m := skuVariantPattern.FindStringSubmatch(code)
	if m == nil {
		return code, nil
	}
	variant := strings.TrimSpace(m[skuVariantPattern.SubexpIndex("var")])
	if variant == "" {
		return m[skuVariantPattern.SubexpIndex("sku")], nil
	}
	return m[skuVariantPattern.SubexpIndex("sku")], &variant
}

package utils

import "strings"

// NormalizeSize normalizes size values to the stored format
func NormalizeSize(size string) string {
	return strings.ToUpper(strings.TrimSpace(size))
}

// BuildSKU derives the SKU of an (article, color, size) combination.
// Example: BuildSKU("gb101", "nero", "48") = "GB101-NERO-48"
func BuildSKU(article, color, size string) string {
	parts := []string{
		strings.ToUpper(strings.TrimSpace(article)),
		strings.ToUpper(strings.Join(strings.Fields(color), "_")),
		NormalizeSize(size),
	}
	return strings.Join(parts, "-")
}

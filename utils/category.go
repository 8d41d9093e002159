package utils

import (
	"strings"
)

// Category is a product category derived from the article code
type Category struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// UnknownCategoryLabel is used for article codes that match no prefix
const UnknownCategoryLabel = "Altro"

// categoryPrefixes is checked in order. Two-letter prefixes must come before the
// single letters they start with: "GB" before "G", "PM" before "P".
var categoryPrefixes = []Category{
	{Code: "GB", Label: "Giubbotti"},
	{Code: "MG", Label: "Maglie"},
	{Code: "PM", Label: "Pantaloni Felpa"},
	{Code: "G", Label: "Giacche"},
	{Code: "P", Label: "Pantaloni"},
	{Code: "C", Label: "Camicie"},
}

// CategoryForArticle maps an article code to its category by prefix.
// Input is normalized to uppercase before matching.
func CategoryForArticle(article string) Category {
	code := strings.ToUpper(strings.TrimSpace(article))
	for _, c := range categoryPrefixes {
		if strings.HasPrefix(code, c.Code) {
			return c
		}
	}
	return Category{Code: "", Label: UnknownCategoryLabel}
}

// CategoryLabel returns the readable label of a category code.
// Unknown codes are returned unchanged so that stored values stay visible.
func CategoryLabel(code string) string {
	codeUpper := strings.ToUpper(strings.TrimSpace(code))
	if codeUpper == "" {
		return UnknownCategoryLabel
	}
	for _, c := range categoryPrefixes {
		if c.Code == codeUpper {
			return c.Label
		}
	}
	return code
}

// Categories returns the known categories in matching order
func Categories() []Category {
	out := make([]Category, len(categoryPrefixes))
	copy(out, categoryPrefixes)
	return out
}

package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mars3lo-orders/models"
)

func TestCategoryForArticle(t *testing.T) {
	tests := []struct {
		article   string
		wantCode  string
		wantLabel string
	}{
		{"GB101", "GB", "Giubbotti"},
		{"gb101", "GB", "Giubbotti"},
		{"G200", "G", "Giacche"},
		{"MG33", "MG", "Maglie"},
		{"PM7", "PM", "Pantaloni Felpa"},
		{"P12", "P", "Pantaloni"},
		{"C5", "C", "Camicie"},
		{"X99", "", "Altro"},
		{"", "", "Altro"},
	}
	for _, tt := range tests {
		t.Run(tt.article, func(t *testing.T) {
			got := CategoryForArticle(tt.article)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Giubbotti", CategoryLabel("gb"))
	assert.Equal(t, "Altro", CategoryLabel(""))
	assert.Equal(t, "Outlet", CategoryLabel("Outlet"))
}

func TestBuildSKU(t *testing.T) {
	assert.Equal(t, "GB101-NERO-48", BuildSKU("gb101", "nero", "48"))
	assert.Equal(t, "C5-BLU_NAVY-XL", BuildSKU(" C5 ", "blu  navy", " xl"))
}

func TestGroupStockByComposite(t *testing.T) {
	items := []models.StockItem{
		{SKU: "GB1-NERO-48", Article: "GB1", Color: "NERO", Size: "48"},
		{SKU: "C2-BIANCO-M", Article: "C2", Color: "BIANCO", Size: "M", Category: "C"},
		{SKU: "GB1-NERO-50", Article: "GB1", Color: "NERO", Size: "50"},
		{SKU: "GB1-BLU-48", Article: "GB1", Color: "BLU", Size: "48"},
		// Concatenating with "_" would collide with the group above.
		{SKU: "GB1_BLU-X-1", Article: "GB1_BLU", Color: "X", Size: "1"},
		{SKU: "GB1-BLU_X-1", Article: "GB1", Color: "BLU_X", Size: "1"},
	}

	groups := GroupStock(items)

	require.Len(t, groups, 5)
	assert.Equal(t, GroupKey{"GB1", "NERO"}, GroupKey{groups[0].Article, groups[0].Color})
	assert.Equal(t, "Giubbotti", groups[0].CategoryLabel)
	require.Len(t, groups[0].Sizes, 2)
	assert.Equal(t, "48", groups[0].Sizes[0].Size)
	assert.Equal(t, "50", groups[0].Sizes[1].Size)
	assert.Equal(t, "Camicie", groups[1].CategoryLabel)
	assert.Equal(t, "BLU", groups[2].Color)
	assert.Equal(t, "GB1_BLU", groups[3].Article)
	assert.Equal(t, "BLU_X", groups[4].Color)
}

func TestGroupStockEmpty(t *testing.T) {
	assert.Empty(t, GroupStock(nil))
}

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "€ 0,00"},
		{"5", "€ 5,00"},
		{"40.5", "€ 40,50"},
		{"999.999", "€ 1.000,00"},
		{"1234.5", "€ 1.234,50"},
		{"1234567.89", "€ 1.234.567,89"},
		{"-12.5", "-€ 12,50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEUR(decimal.RequireFromString(tt.in)))
		})
	}
}

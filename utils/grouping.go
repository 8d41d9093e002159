package utils

import (
	"mars3lo-orders/models"
)

// GroupKey identifies one article in one color
type GroupKey struct {
	Article string
	Color   string
}

// KeyOf returns the group key of a stock item
func KeyOf(item models.StockItem) GroupKey {
	return GroupKey{Article: item.Article, Color: item.Color}
}

// GroupStock groups stock items by (article, color).
// Groups keep the order in which their first item appears; sizes keep input order.
func GroupStock(items []models.StockItem) []models.StockGroup {
	index := make(map[GroupKey]int)
	var groups []models.StockGroup

	for _, item := range items {
		key := KeyOf(item)
		i, exists := index[key]
		if !exists {
			category := item.Category
			if category == "" {
				category = CategoryForArticle(item.Article).Code
			}
			groups = append(groups, models.StockGroup{
				Article:       item.Article,
				Color:         item.Color,
				Category:      category,
				CategoryLabel: CategoryLabel(category),
			})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Sizes = append(groups[i].Sizes, item)
	}

	return groups
}

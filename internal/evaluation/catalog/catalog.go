// Package catalog normalizes the inspection catalog (items, categories and
// round metadata) into a strict internal view.
//
// The upstream payloads vary in shape: arrays or {"data": ...} envelopes,
// snake_case or camelCase keys, numbers given as strings, and item lists that
// arrive as JSON encoded strings. All of that variance is absorbed here.
package catalog

import (
	"math"
	"sort"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
)

// Catalog is an immutable, ordered view of evaluation items.
//
// Items are ordered by their category's sort order, then category id, then
// their position in the source payload. Items whose category is unknown sort
// after all known categories.
type Catalog struct {
	items      []models.EvaluationItem
	position   map[id.ItemID]int
	categories map[id.CategoryID]models.Category
}

// New builds a catalog. Duplicate item ids keep their first occurrence.
func New(items []models.EvaluationItem, categories []models.Category) *Catalog {
	c := &Catalog{
		position:   make(map[id.ItemID]int, len(items)),
		categories: make(map[id.CategoryID]models.Category, len(categories)),
	}
	for _, cat := range categories {
		if _, dup := c.categories[cat.ID]; !dup {
			c.categories[cat.ID] = cat
		}
	}

	seen := make(map[id.ItemID]struct{}, len(items))
	ordered := make([]models.EvaluationItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		ordered = append(ordered, item)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := c.sortKey(ordered[i]), c.sortKey(ordered[j])
		if a != b {
			return a < b
		}
		return ordered[i].CategoryID < ordered[j].CategoryID
	})
	c.items = ordered
	for i, item := range ordered {
		c.position[item.ID] = i
	}
	return c
}

func (c *Catalog) sortKey(item models.EvaluationItem) int {
	if cat, ok := c.categories[item.CategoryID]; ok {
		return cat.SortOrder
	}
	return math.MaxInt
}

// Ordered returns all items in catalog order. The slice is a copy.
func (c *Catalog) Ordered() []models.EvaluationItem {
	out := make([]models.EvaluationItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item looks up an item by id.
func (c *Catalog) Item(itemID id.ItemID) (models.EvaluationItem, bool) {
	pos, ok := c.position[itemID]
	if !ok {
		return models.EvaluationItem{}, false
	}
	return c.items[pos], true
}

// Position returns the zero-based catalog position of an item.
func (c *Catalog) Position(itemID id.ItemID) (int, bool) {
	pos, ok := c.position[itemID]
	return pos, ok
}

// Category looks up a category by id.
func (c *Catalog) Category(categoryID id.CategoryID) (models.Category, bool) {
	cat, ok := c.categories[categoryID]
	return cat, ok
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Subset returns the catalog items among ids, in catalog order. Ids the
// catalog does not know are skipped.
func (c *Catalog) Subset(ids []id.ItemID) []models.EvaluationItem {
	positions := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, itemID := range ids {
		pos, ok := c.position[itemID]
		if !ok {
			continue
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	out := make([]models.EvaluationItem, len(positions))
	for i, pos := range positions {
		out[i] = c.items[pos]
	}
	return out
}

// OrderIDs returns ids with catalog items first, in catalog order, followed
// by unknown ids in ascending order. Duplicates are removed.
func (c *Catalog) OrderIDs(ids []id.ItemID) []id.ItemID {
	known := c.Subset(ids)
	out := make([]id.ItemID, 0, len(ids))
	for _, item := range known {
		out = append(out, item.ID)
	}

	var unknown []id.ItemID
	seen := make(map[id.ItemID]struct{})
	for _, itemID := range ids {
		if _, ok := c.position[itemID]; ok {
			continue
		}
		if _, dup := seen[itemID]; dup {
			continue
		}
		seen[itemID] = struct{}{}
		unknown = append(unknown, itemID)
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(out, unknown...)
}

// RoundCatalog is everything the engine needs to evaluate one round.
// Degraded is set when the round's item list could not be parsed and the
// round is evaluated as empty.
type RoundCatalog struct {
	Meta     models.RoundMeta
	Catalog  *Catalog
	Degraded bool
}

// ItemIDs returns the round's items in catalog order.
func (rc *RoundCatalog) ItemIDs() []id.ItemID {
	return rc.Catalog.OrderIDs(rc.Meta.EvaluationItemIDs)
}

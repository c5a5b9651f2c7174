// Package extract selects the non-compliant items of an evaluation.
package extract

import (
	"sort"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
)

// RecordSource is anything that exposes evaluation records; *session.Session
// satisfies it for both in-progress and completed sessions.
type RecordSource interface {
	Records() []session.Record
}

// Extract returns the records whose status scores at or below threshold,
// joined with catalog details and ordered by catalog position. Records whose
// item is missing from the catalog follow, by ascending item id, with empty
// title and code. unset and not_applicable never qualify.
func Extract(src RecordSource, cat *catalog.Catalog, threshold models.Threshold) []capamodels.NonCompliantItem {
	type ranked struct {
		item      capamodels.NonCompliantItem
		pos       int
		inCatalog bool
	}

	var hits []ranked
	for _, rec := range src.Records() {
		if !rec.Status.IsNonCompliant(threshold) {
			continue
		}
		r := ranked{item: capamodels.NonCompliantItem{
			ItemID:  rec.ItemID,
			Status:  rec.Status,
			Comment: rec.Comment,
		}}
		if cat != nil {
			if catItem, ok := cat.Item(rec.ItemID); ok {
				pos, _ := cat.Position(rec.ItemID)
				r.pos = pos
				r.inCatalog = true
				r.item.Title = catItem.Title
				r.item.Code = catItem.Code
				r.item.RiskLevel = catItem.RiskLevel
			}
		}
		hits = append(hits, r)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.inCatalog != b.inCatalog {
			return a.inCatalog
		}
		if a.inCatalog {
			return a.pos < b.pos
		}
		return a.item.ItemID < b.item.ItemID
	})

	out := make([]capamodels.NonCompliantItem, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_CompletionPercentage(t *testing.T) {
	tests := []struct {
		name    string
		entries []SnapshotEntry
		want    int
	}{
		{name: "empty", want: 0},
		{
			name:    "one of three rounds half up",
			entries: []SnapshotEntry{{Status: StatusApplied}, {}, {}},
			want:    33,
		},
		{
			name:    "two of three",
			entries: []SnapshotEntry{{Status: StatusApplied}, {Status: StatusNotApplicable}, {}},
			want:    67,
		},
		{
			name:    "all answered",
			entries: []SnapshotEntry{{Status: StatusNotApplied}, {Status: StatusNotApplicable}},
			want:    100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snapshot{Evaluations: tt.entries}.CompletionPercentage())
		})
	}
}

func TestPriorRecords_RoundTripsThroughHydration(t *testing.T) {
	entries := []SnapshotEntry{
		{ItemID: 1, Status: StatusPartial, Score: StatusPartial.ScorePtr(), Comments: "grease trap"},
		{ItemID: 2, Status: StatusNotApplicable, Comments: "no fryer on site"},
		{ItemID: 3},
	}

	prior := PriorRecords(entries)

	assert.Len(t, prior, 3)
	for i, p := range prior {
		assert.Equal(t, entries[i].ItemID, p.ItemID)
		assert.Equal(t, entries[i].Status, p.HydratedStatus())
		assert.Equal(t, entries[i].Comments, p.Comments)
	}
}

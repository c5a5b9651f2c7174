package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
)

type stubSource struct {
	items      string
	categories string
	rounds     map[id.RoundID]string
	err        error
}

func (s *stubSource) Items(context.Context) ([]byte, error) {
	return []byte(s.items), s.err
}

func (s *stubSource) Categories(context.Context) ([]byte, error) {
	return []byte(s.categories), s.err
}

func (s *stubSource) Round(_ context.Context, roundID id.RoundID) ([]byte, error) {
	raw, ok := s.rounds[roundID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return []byte(raw), nil
}

func newStubSource() *stubSource {
	return &stubSource{
		items:      `[{"id":1,"category_id":1,"code":"A"},{"id":2,"category_id":2,"code":"B"},{"id":3,"category_id":1,"code":"C"}]`,
		categories: `{"data":[{"id":1,"sort_order":5},{"id":2,"sort_order":1}]}`,
		rounds: map[id.RoundID]string{
			7: `{"id":7,"department":"Bakery","evaluation_item_ids":"[3,1,2]"}`,
			8: `{"id":8,"department":"Bakery","evaluation_item_ids":{"broken":true}}`,
		},
	}
}

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(newStubSource())

	rc, err := loader.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Bakery", rc.Meta.Department)
	assert.Equal(t, models.RoundStatusDraft, rc.Meta.Status)
	assert.Equal(t, []id.ItemID{2, 1, 3}, rc.ItemIDs())
	assert.False(t, rc.Degraded)
}

func TestLoaderLoad_DegradedItemList(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	loader := NewLoader(newStubSource(), WithMetrics(m))

	rc, err := loader.Load(context.Background(), 8)
	require.NoError(t, err)
	assert.Empty(t, rc.ItemIDs())
	assert.True(t, rc.Degraded)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogParseErrors))
}

func TestLoaderLoad_Errors(t *testing.T) {
	t.Run("unknown round", func(t *testing.T) {
		_, err := NewLoader(newStubSource()).Load(context.Background(), 99)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("source unavailable", func(t *testing.T) {
		src := newStubSource()
		src.err = errors.New("connection refused")
		_, err := NewLoader(src).Load(context.Background(), 7)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("malformed items", func(t *testing.T) {
		src := newStubSource()
		src.items = `{"data":42}`
		_, err := NewLoader(src).Load(context.Background(), 7)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCatalogParse))
	})
}

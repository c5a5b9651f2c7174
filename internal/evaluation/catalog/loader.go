package catalog

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"roundwise/internal/evaluation/metrics"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
)

// Source serves raw catalog payloads. Implementations return
// sentinel.ErrNotFound for an unknown round.
type Source interface {
	Items(ctx context.Context) ([]byte, error)
	Categories(ctx context.Context) ([]byte, error)
	Round(ctx context.Context, roundID id.RoundID) ([]byte, error)
}

// Loader fetches and normalizes the catalog for a round.
type Loader struct {
	source  Source
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type LoaderOption func(*Loader)

func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

func NewLoader(source Source, opts ...LoaderOption) *Loader {
	l := &Loader{source: source}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches items, categories and the round in parallel. A malformed round
// item list degrades to an empty round and is logged, not returned.
func (l *Loader) Load(ctx context.Context, roundID id.RoundID) (*RoundCatalog, error) {
	var rawItems, rawCategories, rawRound []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawItems, err = l.source.Items(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rawCategories, err = l.source.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rawRound, err = l.source.Round(gctx, roundID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "round not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load catalog")
	}

	items, err := ParseItems(rawItems)
	if err != nil {
		return nil, err
	}
	categories, err := ParseCategories(rawCategories)
	if err != nil {
		return nil, err
	}
	meta, err := ParseRoundMeta(rawRound)
	degraded := false
	if err != nil {
		if !errors.Is(err, ErrDegraded) {
			return nil, err
		}
		degraded = true
		if l.metrics != nil {
			l.metrics.IncCatalogParseErrors()
		}
		if l.logger != nil {
			l.logger.WarnContext(ctx, "round item list unreadable, evaluating as empty round",
				"round_id", roundID,
				"error", err,
			)
		}
	}
	if meta.ID != roundID {
		return nil, dErrors.New(dErrors.CodeCatalogParse, "round payload does not match requested round")
	}

	return &RoundCatalog{
		Meta:     meta,
		Catalog:  New(items, categories),
		Degraded: degraded,
	}, nil
}

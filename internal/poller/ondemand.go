package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/normalize"
)

// Lookup serves the interactive read path: fetch the family's ranges
// (through the TTL cache unless fresh is set), normalize, and return the
// requested entity. The result is also diffed against the snapshot so an
// interactive query pushes any detected change to subscribers immediately,
// but with deletion detection off, since a single-entity lookup says nothing
// about the rest of the population.
func (s *Scheduler) Lookup(ctx context.Context, family domain.SchemaFamily, key string, fresh bool) (*domain.LineRecord, error) {
	var src *FamilySource
	for i := range s.sources {
		if s.sources[i].Family == family {
			src = &s.sources[i]
			break
		}
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, family)
	}

	grids := normalize.Grids{
		Main: s.cache.Read(ctx, src.SheetID, src.MainRange, fresh),
	}
	if src.DetailRange != "" {
		grids.Detail = s.cache.Read(ctx, src.SheetID, src.DetailRange, fresh)
	}

	records, err := s.normalizer.Normalize(family, grids)
	if err != nil {
		return nil, err
	}

	var found *domain.LineRecord
	for i := range records {
		if records[i].Key == key {
			found = &records[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrLineNotFound, key)
	}

	events := s.differ.DiffCycle(ctx, family, []domain.LineRecord{*found}, false)
	for _, ev := range events {
		if err := s.publisher.PublishChange(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Publish failed on interactive lookup",
				"key", ev.EntityKey, "error", err)
		}
	}

	return found, nil
}

// FactoryLines returns all records of one family currently present
// upstream, through the cached read path. Used by the group-level HTTP
// endpoint; it does not touch the snapshot store.
func (s *Scheduler) FactoryLines(ctx context.Context, family domain.SchemaFamily, fresh bool) ([]domain.LineRecord, error) {
	var src *FamilySource
	for i := range s.sources {
		if s.sources[i].Family == family {
			src = &s.sources[i]
			break
		}
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, family)
	}

	grids := normalize.Grids{
		Main: s.cache.Read(ctx, src.SheetID, src.MainRange, fresh),
	}
	if src.DetailRange != "" {
		grids.Detail = s.cache.Read(ctx, src.SheetID, src.DetailRange, fresh)
	}
	return s.normalizer.Normalize(family, grids)
}

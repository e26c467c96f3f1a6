package activity

import (
	"context"
	"strconv"
	"time"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// Source exposes the activity log as records, so the generic list screens
// can render it like any backend collection.
type Source struct {
	svc domain.ActivityService
}

var _ listing.Source[backend.Record] = (*Source)(nil)

// NewSource creates a Source over svc.
func NewSource(svc domain.ActivityService) *Source {
	return &Source{svc: svc}
}

// List implements listing.Source.
func (s *Source) List(ctx context.Context, q listing.Query) (listing.Page[backend.Record], error) {
	page, err := s.svc.List(ctx, q)
	if err != nil {
		return listing.Page[backend.Record]{}, err
	}

	records := make([]backend.Record, 0, len(page.Items))
	for _, e := range page.Items {
		records = append(records, toRecord(e))
	}
	return listing.Page[backend.Record]{
		Items:      records,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}, nil
}

// Delete implements listing.Source.
func (s *Source) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return domain.NewAppError(domain.CodeValidation, "invalid activity id", err)
	}
	return s.svc.Delete(ctx, n)
}

func toRecord(e domain.ActivityEntry) backend.Record {
	return backend.Record{
		"id":        strconv.FormatUint(uint64(e.ID), 10),
		"createdAt": e.CreatedAt.UTC().Format(time.RFC3339),
		"resource":  e.Resource,
		"action":    e.Action,
		"recordId":  e.RecordID,
		"summary":   e.Summary,
		"requestId": e.RequestID,
	}
}

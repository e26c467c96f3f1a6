package activity

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

const maxSummaryRunes = 255

// ServiceConfig parametrizes the activity service. Every field is optional.
type ServiceConfig struct {
	// Keep bounds the log to the newest Keep entries; zero keeps everything.
	Keep int
	// RequestID extracts the correlation id of the current request.
	RequestID func(ctx context.Context) string
	Logger    *slog.Logger
}

// activityService implements domain.ActivityService.
type activityService struct {
	repo domain.ActivityRepository
	cfg  ServiceConfig
}

// NewActivityService creates a new ActivityService with the given repository.
func NewActivityService(repo domain.ActivityRepository, cfg ServiceConfig) domain.ActivityService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &activityService{repo: repo, cfg: cfg}
}

// Record validates and stores one entry, then trims the log when bounded.
// A failed trim is logged; the entry itself is already stored.
func (s *activityService) Record(ctx context.Context, resource, action, recordID, summary string) error {
	resource = strings.TrimSpace(resource)
	action = strings.ToLower(strings.TrimSpace(action))

	if resource == "" {
		return domain.NewAppError(domain.CodeValidation, "resource is required", nil)
	}
	if !slices.Contains(domain.Actions, action) {
		return domain.NewAppError(domain.CodeValidation, "unknown action "+action, nil)
	}

	entry := &domain.ActivityEntry{
		Resource: resource,
		Action:   action,
		RecordID: strings.TrimSpace(recordID),
		Summary:  truncate(strings.TrimSpace(summary), maxSummaryRunes),
	}
	if s.cfg.RequestID != nil {
		entry.RequestID = s.cfg.RequestID(ctx)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return err
	}

	if s.cfg.Keep > 0 {
		removed, err := s.repo.Trim(ctx, s.cfg.Keep)
		if err != nil {
			s.cfg.Logger.WarnContext(ctx, "activity trim failed", slog.Any("error", err))
		} else if removed > 0 {
			s.cfg.Logger.DebugContext(ctx, "activity log trimmed", slog.Int64("removed", removed))
		}
	}
	return nil
}

// Get retrieves an entry by ID.
func (s *activityService) Get(ctx context.Context, id uint) (*domain.ActivityEntry, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of entries.
func (s *activityService) List(ctx context.Context, q listing.Query) (listing.Page[domain.ActivityEntry], error) {
	return s.repo.List(ctx, q)
}

// Delete removes an entry by ID.
func (s *activityService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

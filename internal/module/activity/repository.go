package activity

import (
	"context"
	"errors"
	"strings"

	"github.com/simp-lee/pagination"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/pkg"
)

// Fields usable in List queries.
var (
	allowedSortFields   = []string{"id", "created_at"}
	allowedFilterFields = []string{"resource", "action"}
	searchFields        = []string{"summary", "record_id"}
)

// newest first; ids are monotonic so they break created_at ties.
const listSort = "id:desc"

// activityRepository implements domain.ActivityRepository using GORM.
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository backed by the given GORM database.
func NewActivityRepository(db *gorm.DB) domain.ActivityRepository {
	return &activityRepository{db: db}
}

// Create inserts a new entry.
func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves an entry by its primary key.
func (r *activityRepository) GetByID(ctx context.Context, id uint) (*domain.ActivityEntry, error) {
	var entry domain.ActivityEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &entry, nil
}

// List returns one page of entries, newest first, filtered by resource and
// action and searched on summary and record id. A page past the end is
// clamped to the last page; the totals tell the caller it moved.
func (r *activityRepository) List(ctx context.Context, q listing.Query) (listing.Page[domain.ActivityEntry], error) {
	matching := func(ctx context.Context) *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.ActivityEntry{}).Scopes(
			pkg.Filter(q, allowedFilterFields),
			pkg.Search(q, searchFields),
		)
	}

	result, err := pagination.NewPaginator(
		pagination.WithItemsPerPage[domain.ActivityEntry](q.Limit),
		pagination.WithItemTotalCallback[domain.ActivityEntry](func(ctx context.Context) (int64, error) {
			var total int64
			err := matching(ctx).Count(&total).Error
			return total, err
		}),
		pagination.WithSliceCallback(func(ctx context.Context, offset, limit int) ([]domain.ActivityEntry, error) {
			var entries []domain.ActivityEntry
			err := matching(ctx).
				Scopes(pkg.Sort(listSort, allowedSortFields)).
				Offset(offset).
				Limit(limit).
				Find(&entries).Error
			return entries, err
		}),
	).Paginate(ctx, max(q.Page, 1))
	if err != nil {
		return listing.Page[domain.ActivityEntry]{}, mapError(err)
	}

	return listing.NewPage(result.Items, int(result.TotalItems), q.Limit), nil
}

// Delete removes an entry by ID.
func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.ActivityEntry{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Trim keeps the newest keep entries and deletes the rest in one transaction.
func (r *activityRepository) Trim(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	var removed int64
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&domain.ActivityEntry{}).
			Order("id desc").
			Offset(keep).
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		result := tx.Where("id <= ?", ids[0]).Delete(&domain.ActivityEntry{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return removed, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not every GORM dialector translates driver errors to
// gorm.ErrDuplicatedKey (the pure-Go SQLite driver does not).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

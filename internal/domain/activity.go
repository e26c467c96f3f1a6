package domain

import (
	"context"

	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// Activity actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionUpload = "upload"
)

// Actions lists every activity action in display order.
var Actions = []string{ActionCreate, ActionUpdate, ActionDelete, ActionUpload}

// ActivityEntry records one successful mutation made through the console.
type ActivityEntry struct {
	BaseModel
	Resource  string `gorm:"size:64;not null;index" json:"resource"`
	Action    string `gorm:"size:16;not null;index" json:"action"`
	RecordID  string `gorm:"size:64" json:"recordId"`
	Summary   string `gorm:"size:255" json:"summary"`
	RequestID string `gorm:"size:64" json:"requestId"`
}

// ActivityRepository defines persistence operations for activity entries.
type ActivityRepository interface {
	Create(ctx context.Context, entry *ActivityEntry) error
	GetByID(ctx context.Context, id uint) (*ActivityEntry, error)
	List(ctx context.Context, q listing.Query) (listing.Page[ActivityEntry], error)
	Delete(ctx context.Context, id uint) error
	// Trim deletes all but the newest keep entries and returns how many went.
	Trim(ctx context.Context, keep int) (int64, error)
}

// ActivityService defines the business operations of the activity log.
type ActivityService interface {
	Record(ctx context.Context, resource, action, recordID, summary string) error
	Get(ctx context.Context, id uint) (*ActivityEntry, error)
	List(ctx context.Context, q listing.Query) (listing.Page[ActivityEntry], error)
	Delete(ctx context.Context, id uint) error
}

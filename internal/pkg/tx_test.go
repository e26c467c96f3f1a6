package pkg

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
)

// fakeConn is both the pool that begins transactions and the transaction
// itself, recording how each transaction ended.
type fakeConn struct {
	beginErr   error
	committed  bool
	rolledBack bool
}

func (f *fakeConn) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, nil }
func (f *fakeConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeConn) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }

func (f *fakeConn) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{conn: f}, nil
}

type fakeTx struct{ conn *fakeConn }

func (t *fakeTx) PrepareContext(ctx context.Context, q string) (*sql.Stmt, error) {
	return t.conn.PrepareContext(ctx, q)
}
func (t *fakeTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return t.conn.ExecContext(ctx, q, args...)
}
func (t *fakeTx) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return t.conn.QueryContext(ctx, q, args...)
}
func (t *fakeTx) QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row {
	return t.conn.QueryRowContext(ctx, q, args...)
}
func (t *fakeTx) Commit() error   { t.conn.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.conn.rolledBack = true; return nil }

func fakeDB(conn *fakeConn) *gorm.DB {
	db := &gorm.DB{Config: &gorm.Config{}}
	db.Statement = &gorm.Statement{DB: db, ConnPool: conn}
	return db
}

func TestWithTx_Outcome(t *testing.T) {
	fnErr := errors.New("write failed")

	tests := []struct {
		name         string
		beginErr     error
		fn           func(tx *gorm.DB) error
		wantErr      error
		wantCommit   bool
		wantRollback bool
	}{
		{
			name:       "commit",
			fn:         func(*gorm.DB) error { return nil },
			wantCommit: true,
		},
		{
			name:         "fn error rolls back",
			fn:           func(*gorm.DB) error { return fnErr },
			wantErr:      fnErr,
			wantRollback: true,
		},
		{
			name:     "begin error skips fn",
			beginErr: errors.New("begin failed"),
			fn: func(*gorm.DB) error {
				t.Fatal("fn called after failed begin")
				return nil
			},
			wantErr: errors.New("begin failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{beginErr: tt.beginErr}
			err := WithTx(context.Background(), fakeDB(conn), tt.fn)

			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("WithTx() error = %v", err)
			case tt.wantErr != nil && (err == nil || err.Error() != tt.wantErr.Error()):
				t.Fatalf("WithTx() error = %v; want %v", err, tt.wantErr)
			}
			if conn.committed != tt.wantCommit || conn.rolledBack != tt.wantRollback {
				t.Errorf("committed=%t rolledBack=%t; want %t/%t", conn.committed, conn.rolledBack, tt.wantCommit, tt.wantRollback)
			}
		})
	}
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	conn := &fakeConn{}

	defer func() {
		if r := recover(); r != "upload aborted" {
			t.Fatalf("recovered %v; want re-raised panic", r)
		}
		if !conn.rolledBack || conn.committed {
			t.Errorf("committed=%t rolledBack=%t after panic", conn.committed, conn.rolledBack)
		}
	}()

	_ = WithTx(context.Background(), fakeDB(conn), func(*gorm.DB) error {
		panic("upload aborted")
	})
}

func activityDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.ActivityEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.ActivityEntry{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestWithTx_SQLite(t *testing.T) {
	db := activityDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&domain.ActivityEntry{Resource: "brands", Action: domain.ActionCreate, RecordID: "1"}).Error
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if n := countEntries(t, db); n != 1 {
		t.Fatalf("rows after commit = %d; want 1", n)
	}

	rollback := errors.New("summary rejected")
	err = WithTx(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&domain.ActivityEntry{Resource: "brands", Action: domain.ActionDelete, RecordID: "1"}).Error; err != nil {
			t.Fatalf("insert: %v", err)
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("error = %v; want %v", err, rollback)
	}
	if n := countEntries(t, db); n != 1 {
		t.Fatalf("rows after rollback = %d; want 1", n)
	}
}

func TestWithTx_CanceledContext(t *testing.T) {
	db := activityDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&domain.ActivityEntry{Resource: "units", Action: domain.ActionCreate}).Error
	})
	if err == nil {
		t.Fatal("WithTx() with canceled context: error = nil")
	}
	if n := countEntries(t, db); n != 0 {
		t.Errorf("rows = %d; want 0", n)
	}
}

package service

import (
	"context"
	"errors"
	"net"
	"testing"

	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type refusingLocker struct{ err error }

func (l refusingLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	return nil, l.err
}

func TestCoordinatorClassifiesErrors(t *testing.T) {
	db := testutil.NewTestDB(t)
	coord := NewCoordinator(db, nil, nil, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"domain passes through", &ScheduleConflictError{}, ErrScheduleConflict},
		{"wrapped domain", errors.Join(ErrInsufficientStock), ErrInsufficientStock},
		{"missing row", gorm.ErrRecordNotFound, ErrNotFound},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrStoreUnavailable},
		{"anything else", errors.New("constraint violated"), ErrTransactionAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := coord.Run(ctx, "test", func(tx *gorm.DB) error { return tt.err })
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCoordinatorRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	coord := NewCoordinator(db, nil, nil, zap.NewNop())

	err := coord.Run(context.Background(), "test", func(tx *gorm.DB) error {
		if err := tx.Create(&model.Machine{Name: "ghost"}).Error; err != nil {
			return err
		}
		return ErrInsufficientStock
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var count int64
	require.NoError(t, db.Model(&model.Machine{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCoordinatorRunLockedWithoutLock(t *testing.T) {
	db := testutil.NewTestDB(t)
	ran := false

	coord := NewCoordinator(db, refusingLocker{err: lock.ErrNotObtained}, nil, zap.NewNop())
	err := coord.RunLocked(context.Background(), "test", "machine:x", func(tx *gorm.DB) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrTransactionAborted)
	assert.False(t, ran)

	coord = NewCoordinator(db, refusingLocker{err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, nil, zap.NewNop())
	err = coord.RunLocked(context.Background(), "test", "machine:x", func(tx *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

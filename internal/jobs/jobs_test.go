package jobs

import (
	"context"
	"errors"
	"testing"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"
	"go-printshop-ws/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	service.CatalogService
	low []service.StockLevel
	err error
}

func (f fakeCatalog) LowStock(ctx context.Context) ([]service.StockLevel, error) {
	return f.low, f.err
}

type captureNotifier struct{ messages []ws.Message }

func (c *captureNotifier) Publish(msg ws.Message) { c.messages = append(c.messages, msg) }

func TestStockAlertBroadcastsLowItems(t *testing.T) {
	notifier := &captureNotifier{}
	catalog := fakeCatalog{low: []service.StockLevel{{
		Barcode: "PLA-RED", ItemKind: model.ItemMaterial, OnHand: decimal.NewFromInt(0), MinStock: decimal.NewFromInt(1), Low: true,
	}}}

	job := StockAlert("@every 1m", catalog, notifier, zap.NewNop())
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "stock_alert", notifier.messages[0].Type)
	assert.Equal(t, "low_stock", notifier.messages[0].Action)
}

func TestStockAlertQuietWhenNothingLow(t *testing.T) {
	notifier := &captureNotifier{}
	job := StockAlert("@every 1m", fakeCatalog{}, notifier, zap.NewNop())
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifier.messages)

	failing := StockAlert("@every 1m", fakeCatalog{err: errors.New("db down")}, notifier, zap.NewNop())
	assert.Error(t, failing.Run(context.Background()))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, err := Start(zap.NewNop(), Job{Name: "bad", Schedule: "not a schedule", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)

	c, err := Start(zap.NewNop(), Job{Name: "ok", Schedule: "@every 1h", Run: func(context.Context) error { return nil }})
	require.NoError(t, err)
	<-c.Stop().Done()
}

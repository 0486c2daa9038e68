package service

import (
	"context"
	"testing"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCompleteStandardOrderDeductsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedProduct(t, env.db, "VASE-01", 10)

	order, err := env.orders.CreateOrder(ctx, CreateOrderRequest{
		ClientName: "Acme", OrderType: model.OrderStandard, ProductBarcode: strPtr("VASE-01"), Quantity: 3,
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)

	done, err := env.orders.TransitionOrderStatus(ctx, order.ID, model.OrderCompleted, "tester")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, int64(7), env.productStock(t, "VASE-01"))

	again, err := env.orders.TransitionOrderStatus(ctx, order.ID, model.OrderCompleted, "tester")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, again.Status)
	assert.Equal(t, int64(7), env.productStock(t, "VASE-01"))
	env.requireStockMatchesLedger(t, "VASE-01")

	var consumed int64
	require.NoError(t, env.db.Model(&model.LedgerEvent{}).
		Where("ref_type = ? AND ref_id = ?", model.RefOrder, order.ID).
		Count(&consumed).Error)
	assert.Equal(t, int64(1), consumed)
}

func TestCompleteCustomOrderConsumesMaterialsAndLogsPrint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedMaterial(t, env.db, "PLA-RED", dec("1.0"))
	testutil.SeedMaterial(t, env.db, "PETG-CLR", dec("0.5"))

	order, err := env.orders.CreateOrder(ctx, CreateOrderRequest{
		ClientName: "Acme",
		OrderType:  model.OrderCustom,
		Quantity:   1,
		Composition: []model.CompositionLine{
			{MaterialBarcode: "PLA-RED", Quantity: dec("0.25")},
			{MaterialBarcode: "PETG-CLR", Quantity: dec("0.5")},
		},
	}, "tester")
	require.NoError(t, err)

	_, err = env.orders.TransitionOrderStatus(ctx, order.ID, model.OrderInProgress, "tester")
	require.NoError(t, err)
	_, err = env.orders.TransitionOrderStatus(ctx, order.ID, model.OrderCompleted, "tester")
	require.NoError(t, err)

	assert.True(t, env.ledgerSum(t, model.ItemMaterial, "PLA-RED").Equal(dec("0.75")))
	assert.True(t, env.ledgerSum(t, model.ItemMaterial, "PETG-CLR").IsZero())

	var logs []model.PrintLog
	require.NoError(t, env.db.Where("order_id = ?", order.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "Order: Acme", logs[0].Name)
	assert.Len(t, logs[0].Composition, 2)
	assert.NotEmpty(t, logs[0].Notes)

	assert.Contains(t, env.notifier.actions(), "print_logged")
	assert.Contains(t, env.notifier.actions(), "order_consumed")
}

func TestCompleteOrderInsufficientStockKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedMaterial(t, env.db, "PLA-RED", dec("1.0"))
	testutil.SeedMaterial(t, env.db, "PETG-CLR", dec("0.1"))

	order, err := env.orders.CreateOrder(ctx, CreateOrderRequest{
		ClientName: "Acme",
		OrderType:  model.OrderCustom,
		Quantity:   1,
		Composition: []model.CompositionLine{
			{MaterialBarcode: "PLA-RED", Quantity: dec("0.25")},
			{MaterialBarcode: "PETG-CLR", Quantity: dec("0.5")},
		},
	}, "tester")
	require.NoError(t, err)

	_, err = env.orders.TransitionOrderStatus(ctx, order.ID, model.OrderCompleted, "tester")
	require.ErrorIs(t, err, ErrInsufficientStock)

	stored, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	assert.True(t, env.ledgerSum(t, model.ItemMaterial, "PLA-RED").Equal(dec("1.0")))
	var logs int64
	require.NoError(t, env.db.Model(&model.PrintLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestOrderTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedProduct(t, env.db, "VASE-01", 10)

	newOrder := func() *model.Order {
		o, err := env.orders.CreateOrder(ctx, CreateOrderRequest{
			ClientName: "Acme", OrderType: model.OrderStandard, ProductBarcode: strPtr("VASE-01"), Quantity: 1,
		}, "tester")
		require.NoError(t, err)
		return o
	}

	cancelled := newOrder()
	_, err := env.orders.TransitionOrderStatus(ctx, cancelled.ID, model.OrderCancelled, "tester")
	require.NoError(t, err)
	_, err = env.orders.TransitionOrderStatus(ctx, cancelled.ID, model.OrderCompleted, "tester")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	completed := newOrder()
	_, err = env.orders.TransitionOrderStatus(ctx, completed.ID, model.OrderCompleted, "tester")
	require.NoError(t, err)
	_, err = env.orders.TransitionOrderStatus(ctx, completed.ID, model.OrderPending, "tester")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	started := newOrder()
	_, err = env.orders.TransitionOrderStatus(ctx, started.ID, model.OrderInProgress, "tester")
	require.NoError(t, err)
	_, err = env.orders.TransitionOrderStatus(ctx, started.ID, model.OrderPending, "tester")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.TransitionOrderStatus(ctx, started.ID, "shipped", "tester")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.orders.TransitionOrderStatus(ctx, uuid.New(), model.OrderCompleted, "tester")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int64(9), env.productStock(t, "VASE-01"))
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orders.CreateOrder(ctx, CreateOrderRequest{ClientName: "Acme", OrderType: model.OrderCustom, Quantity: 1}, "tester")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.CreateOrder(ctx, CreateOrderRequest{ClientName: "Acme", OrderType: model.OrderStandard, Quantity: 1}, "tester")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.CreateOrder(ctx, CreateOrderRequest{
		ClientName: "Acme", OrderType: model.OrderStandard, ProductBarcode: strPtr("NOPE"), Quantity: 1,
	}, "tester")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.orders.CreateOrder(ctx, CreateOrderRequest{
		ClientName: "Acme", OrderType: model.OrderCustom, Quantity: 1,
		Composition: []model.CompositionLine{{MaterialBarcode: "PLA", Quantity: dec("-1")}},
	}, "tester")
	assert.ErrorIs(t, err, ErrValidation)
}

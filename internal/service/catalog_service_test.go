package service

import (
	"context"
	"testing"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductRecordsOpeningStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, CreateProductRequest{
		Barcode: "VASE-01", Name: "Vase", InitialStock: 4, MinStock: 5, SalePrice: dec("12.50"),
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Stock)
	env.requireStockMatchesLedger(t, "VASE-01")

	_, err = env.catalog.CreateProduct(ctx, CreateProductRequest{Barcode: "VASE-01", Name: "Other"}, "tester")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	level, err := env.catalog.GetStockLevel(ctx, "VASE-01")
	require.NoError(t, err)
	assert.Equal(t, model.ItemProduct, level.ItemKind)
	assert.True(t, level.OnHand.Equal(dec("4")))
	assert.True(t, level.Low)

	_, err = env.catalog.GetStockLevel(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, CreateProductRequest{Barcode: "VASE-01", Name: "Vase", InitialStock: 4}, "tester")
	require.NoError(t, err)

	updated, err := env.catalog.UpdateProduct(ctx, p.ID, UpdateProductRequest{Name: "Tall vase", MinStock: 2}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "Tall vase", updated.Name)
	assert.Equal(t, int64(4), env.productStock(t, "VASE-01"))
}

func TestMaterialsCarryDerivedOnHand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.CreateMaterial(ctx, CreateMaterialRequest{
		Barcode: "PLA-RED", Name: "PLA Red", MaterialType: "PLA", InitialStock: dec("2.5"), MinStock: dec("1"),
	}, "tester")
	require.NoError(t, err)
	_, err = env.catalog.CreateMaterial(ctx, CreateMaterialRequest{
		Barcode: "PETG-CLR", Name: "PETG Clear", MinStock: dec("0.5"),
	}, "tester")
	require.NoError(t, err)

	materials, err := env.catalog.ListMaterials(ctx)
	require.NoError(t, err)
	require.Len(t, materials, 2)
	byBarcode := map[string]model.Material{}
	for _, m := range materials {
		byBarcode[m.Barcode] = m
	}
	assert.True(t, byBarcode["PLA-RED"].OnHand.Equal(dec("2.5")))
	assert.True(t, byBarcode["PETG-CLR"].OnHand.IsZero())

	low, err := env.catalog.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "PETG-CLR", low[0].Barcode)
}

func TestMachineAndPrintLogCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := &model.Machine{Name: "Bambu X1", Brand: "Bambu"}
	require.NoError(t, env.catalog.CreateMachine(ctx, m, "tester"))
	assert.Equal(t, model.MachineAvailable, m.Status)

	require.NoError(t, env.catalog.UpdateMachineStatus(ctx, m.ID, model.MachineBusy, "tester"))
	assert.ErrorIs(t, env.catalog.UpdateMachineStatus(ctx, m.ID, "broken", "tester"), ErrValidation)

	machines, err := env.catalog.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, model.MachineBusy, machines[0].Status)

	require.NoError(t, env.catalog.CreatePrintLog(ctx, &model.PrintLog{Name: "Calibration cube"}, "tester"))
	assert.ErrorIs(t, env.catalog.CreatePrintLog(ctx, &model.PrintLog{}, "tester"), ErrValidation)

	require.NoError(t, env.catalog.CreateSupplier(ctx, &model.Supplier{Name: "Filamentum", Email: "sales@example.com"}, "tester"))
	assert.ErrorIs(t, env.catalog.CreateSupplier(ctx, &model.Supplier{Name: "Bad", Email: "nope"}, "tester"), ErrValidation)
}

func TestUpdateSupplierAndPrintLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := &model.Supplier{Name: "Filamentum", Email: "sales@example.com"}
	require.NoError(t, env.catalog.CreateSupplier(ctx, supplier, "tester"))

	updated, err := env.catalog.UpdateSupplier(ctx, supplier.ID, UpdateSupplierRequest{
		Name: "Filamentum CZ", Email: "orders@example.com", Phone: "+420 1",
	}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "Filamentum CZ", updated.Name)

	suppliers, err := env.catalog.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "orders@example.com", suppliers[0].Email)
	assert.Equal(t, "editor", suppliers[0].UpdatedBy)

	_, err = env.catalog.UpdateSupplier(ctx, supplier.ID, UpdateSupplierRequest{Name: "X", Email: "nope"}, "editor")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.catalog.UpdateSupplier(ctx, uuid.New(), UpdateSupplierRequest{Name: "X"}, "editor")
	assert.ErrorIs(t, err, ErrNotFound)

	printLog := &model.PrintLog{Name: "Calibration cube"}
	require.NoError(t, env.catalog.CreatePrintLog(ctx, printLog, "tester"))

	edited, err := env.catalog.UpdatePrintLog(ctx, printLog.ID, UpdatePrintLogRequest{
		Name:        "Calibration cube v2",
		Composition: []model.CompositionLine{{MaterialBarcode: "PLA-BLK", Quantity: dec("0.02")}},
		Notes:       "reprinted",
	}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "Calibration cube v2", edited.Name)

	logs, err := env.catalog.ListPrintLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "reprinted", logs[0].Notes)
	require.Len(t, logs[0].Composition, 1)
	assert.True(t, logs[0].Composition[0].Quantity.Equal(dec("0.02")))

	// print logs have no stock effect
	var events int64
	require.NoError(t, env.db.Model(&model.LedgerEvent{}).Count(&events).Error)
	assert.Zero(t, events)

	_, err = env.catalog.UpdatePrintLog(ctx, uuid.New(), UpdatePrintLogRequest{Name: "ghost"}, "editor")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, env.notifier.actions(), "print_updated")
}

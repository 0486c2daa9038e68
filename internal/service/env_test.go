package service

import (
	"sync"
	"testing"
	"time"

	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/testutil"
	"go-printshop-ws/internal/ws"
	"go-printshop-ws/pkg/jwt"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []ws.Message
}

func (n *recordingNotifier) Publish(msg ws.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Action
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier
	coord    *Coordinator

	scheduler SchedulerService
	ledger    LedgerService
	orders    OrderService
	catalog   CatalogService
	entities  EntityService
	auth      AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := zaptest.NewLogger(t)
	notifier := &recordingNotifier{}
	coord := NewCoordinator(db, lock.NewLocalLocker(), nil, log)

	products := repository.NewProductRepo(db)
	materials := repository.NewMaterialRepo(db)
	ledger := repository.NewLedgerRepo(db)
	suppliers := repository.NewSupplierRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	sales := repository.NewSaleRepo(db)
	orders := repository.NewOrderRepo(db)
	machines := repository.NewMachineRepo(db)
	reservations := repository.NewReservationRepo(db)
	prints := repository.NewPrintLogRepo(db)

	entities := NewEntityService(coord, EntityRepos{
		Products:     products,
		Materials:    materials,
		Suppliers:    suppliers,
		Purchases:    purchases,
		Sales:        sales,
		Orders:       orders,
		Machines:     machines,
		Reservations: reservations,
		PrintLogs:    prints,
		Ledger:       ledger,
	}, notifier, log)
	signer := jwt.NewSigner("test-secret", time.Hour, "printshop-test")

	return &testEnv{
		db:        db,
		notifier:  notifier,
		coord:     coord,
		scheduler: NewSchedulerService(coord, machines, reservations, orders, notifier, nil, log),
		ledger:    NewLedgerService(coord, products, materials, ledger, purchases, sales, notifier, nil, log),
		orders:    NewOrderService(coord, orders, products, materials, ledger, prints, notifier, nil, log),
		catalog:   NewCatalogService(coord, products, materials, ledger, suppliers, machines, prints, notifier, log),
		entities:  entities,
		auth:      NewAuthService(repository.NewUserRepo(db), signer, log),
	}
}

func (e *testEnv) productStock(t *testing.T, barcode string) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.First(&p, "barcode = ?", barcode).Error)
	return p.Stock
}

func (e *testEnv) ledgerSum(t *testing.T, item model.ItemKind, barcode string) decimal.Decimal {
	t.Helper()
	sum, err := repository.NewLedgerRepo(e.db).SumDelta(e.db, item, barcode)
	require.NoError(t, err)
	return sum
}

// requireStockMatchesLedger checks that a product counter equals the sum of its deltas.
func (e *testEnv) requireStockMatchesLedger(t *testing.T, barcode string) {
	t.Helper()
	stock := e.productStock(t, barcode)
	sum := e.ledgerSum(t, model.ItemProduct, barcode)
	require.True(t, sum.Equal(decimal.NewFromInt(stock)), "stock %d, ledger sum %s", stock, sum)
}

func (e *testEnv) reservation(t *testing.T, id interface{}) model.Reservation {
	t.Helper()
	var r model.Reservation
	require.NoError(t, e.db.First(&r, "id = ?", id).Error)
	return r
}

func requireSameInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	require.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

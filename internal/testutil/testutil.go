// Package testutil provides a throwaway SQLite database with the full
// schema migrated, plus fixture helpers shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a file-backed SQLite database unique to the test and
// migrates every model into it. The file is removed on cleanup.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("printshop_%s_%d.db", name, time.Now().UnixNano()))
	t.Cleanup(func() {
		os.Remove(tmpFile)
		os.Remove(tmpFile + "-wal")
		os.Remove(tmpFile + "-shm")
	})

	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Hour returns a fixed UTC instant on 2030-01-01 at the given hour and minute.
func Hour(h, m int) time.Time {
	return time.Date(2030, 1, 1, h, m, 0, 0, time.UTC)
}

func SeedMachine(t *testing.T, db *gorm.DB, name string) *model.Machine {
	t.Helper()
	m := &model.Machine{Name: name, Status: model.MachineAvailable}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed machine: %v", err)
	}
	return m
}

// SeedReservation inserts a reservation directly, bypassing conflict checks.
func SeedReservation(t *testing.T, db *gorm.DB, machineID uuid.UUID, start, end time.Time, status model.ReservationStatus) *model.Reservation {
	t.Helper()
	r := &model.Reservation{MachineID: machineID, Title: "job", StartAt: start, EndAt: end, Status: status}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	return r
}

// SeedProduct inserts a product with an opening ledger event so that its
// stock equals the sum of its deltas.
func SeedProduct(t *testing.T, db *gorm.DB, barcode string, stock int64) *model.Product {
	t.Helper()
	p := &model.Product{Barcode: barcode, Name: "Product " + barcode, Stock: stock, SalePrice: decimal.NewFromInt(10)}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if stock != 0 {
		ev := model.NewLedgerEvent(model.LedgerOpening, model.ItemProduct, barcode, decimal.NewFromInt(stock), model.RefProduct, p.ID)
		if err := db.Create(ev).Error; err != nil {
			t.Fatalf("seed opening event: %v", err)
		}
	}
	return p
}

// SeedMaterial inserts a material whose derived on-hand equals onHand.
func SeedMaterial(t *testing.T, db *gorm.DB, barcode string, onHand decimal.Decimal) *model.Material {
	t.Helper()
	m := &model.Material{Barcode: barcode, Name: "Filament " + barcode, MaterialType: "PLA"}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed material: %v", err)
	}
	if !onHand.IsZero() {
		ev := model.NewLedgerEvent(model.LedgerOpening, model.ItemMaterial, barcode, onHand, model.RefMaterial, m.ID)
		if err := db.Create(ev).Error; err != nil {
			t.Fatalf("seed opening event: %v", err)
		}
	}
	return m
}

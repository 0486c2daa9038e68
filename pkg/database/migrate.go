package database

import (
	"go-printshop-ws/internal/model"

	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Supplier{},
		&model.Material{},
		&model.Product{},
		&model.Purchase{},
		&model.Sale{},
		&model.Order{},
		&model.Machine{},
		&model.Reservation{},
		&model.PrintLog{},
		&model.LedgerEvent{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

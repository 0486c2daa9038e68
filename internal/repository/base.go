package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// softDelete stamps deleted_by and soft-deletes the row. It returns
// gorm.ErrRecordNotFound when no live row has the id.
func softDelete(tx *gorm.DB, value interface{}, id uuid.UUID, deletedBy string) error {
	res := tx.Model(value).Where("id = ?", id).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return tx.Delete(value, "id = ?", id).Error
}

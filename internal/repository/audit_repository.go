package repository

import (
	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Record(entry *model.AuditLog) error
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}

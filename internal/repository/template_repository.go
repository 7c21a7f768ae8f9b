package repository

import (
	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(template *model.FormTemplate) error
	FindByID(id uint) (*model.FormTemplate, error)
	FindAvailable(userID uint) ([]model.FormTemplate, error)
	Delete(id uint) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *model.FormTemplate) error {
	return r.db.Create(template).Error
}

func (r *templateRepository) FindByID(id uint) (*model.FormTemplate, error) {
	var template model.FormTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// FindAvailable returns public templates plus the user's own ones.
func (r *templateRepository) FindAvailable(userID uint) ([]model.FormTemplate, error) {
	var templates []model.FormTemplate
	err := r.db.Where("is_public = ? OR created_by = ?", true, userID).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Delete(id uint) error {
	return r.db.Delete(&model.FormTemplate{}, id).Error
}

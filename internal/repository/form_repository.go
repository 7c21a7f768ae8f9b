package repository

import (
	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

type FormRepository interface {
	Create(form *model.Form) error
	Save(form *model.Form) error
	FindByID(id uint) (*model.Form, error)
	FindByIDWithSchema(id uint) (*model.Form, error)
	FindAllByOwner(ownerID uint) ([]model.Form, error)
	CountResponses(formID uint) (int64, error)
	Delete(id uint) error
}

type formRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) Create(form *model.Form) error {
	// Creates associated sections and questions in the same insert when the
	// slices are populated.
	return r.db.Create(form).Error
}

func (r *formRepository) Save(form *model.Form) error {
	return r.db.Save(form).Error
}

func (r *formRepository) FindByID(id uint) (*model.Form, error) {
	var form model.Form
	if err := r.db.First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

// FindByIDWithSchema loads the form with its sections and questions in
// persisted order. Both the public form endpoint and the submission path go
// through here so there is a single source of truth for the schema.
func (r *formRepository) FindByIDWithSchema(id uint) (*model.Form, error) {
	var form model.Form
	err := r.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.\"order\" ASC")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.\"order\" ASC")
		}).
		First(&form, id).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) FindAllByOwner(ownerID uint) ([]model.Form, error) {
	var forms []model.Form
	if err := r.db.Where("created_by = ?", ownerID).Order("created_at DESC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *formRepository) CountResponses(formID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Response{}).Where("form_id = ?", formID).Count(&count).Error
	return count, err
}

func (r *formRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Explicit cascade: answers -> responses -> questions -> sections -> form.
		if err := tx.Where("response_id IN (?)",
			tx.Model(&model.Response{}).Select("id").Where("form_id = ?", id),
		).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id IN (?)",
			tx.Model(&model.Section{}).Select("id").Where("form_id = ?", id),
		).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Form{}, id).Error
	})
}

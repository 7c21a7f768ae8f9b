package repository

import (
	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

type LibraryRepository interface {
	Create(question *model.LibraryQuestion) error
	FindByID(id uint) (*model.LibraryQuestion, error)
	FindAvailable(userID uint) ([]model.LibraryQuestion, error)
	Delete(id uint) error
}

type libraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) Create(question *model.LibraryQuestion) error {
	return r.db.Create(question).Error
}

func (r *libraryRepository) FindByID(id uint) (*model.LibraryQuestion, error) {
	var question model.LibraryQuestion
	if err := r.db.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// FindAvailable returns public library questions plus the user's own ones.
func (r *libraryRepository) FindAvailable(userID uint) ([]model.LibraryQuestion, error) {
	var questions []model.LibraryQuestion
	err := r.db.Where("is_public = ? OR created_by = ?", true, userID).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *libraryRepository) Delete(id uint) error {
	return r.db.Delete(&model.LibraryQuestion{}, id).Error
}

package repository

import (
	"errors"
	"time"

	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

// ErrSubmissionClosed is returned by Commit when the form left its submission
// window between validation and commit: unpublished, response limit reached,
// or expired.
var ErrSubmissionClosed = errors.New("repository: form is not accepting submissions")

type ResponseRepository interface {
	Commit(response *model.Response) error
	FindByIDWithAnswers(id uint) (*model.Response, error)
	FindByFormAndToken(formID uint, token string) (*model.Response, error)
	FindPageByFormID(formID uint, page, perPage int) ([]model.Response, int64, error)
	FindAllByFormID(formID uint) ([]model.Response, error)
	Delete(id uint) error
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

// Commit persists one response and all its answers as a single unit. The
// conditional update that claims a submission slot doubles as the commit-time
// re-check of the submission window: it only matches while the form is
// published, under its response limit and not expired, so two concurrent
// submissions can never both take the last slot.
func (r *responseRepository) Commit(response *model.Response) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&model.Form{}).
			Where("id = ? AND status = ?", response.FormID, model.FormStatusPublished).
			Where("response_limit = 0 OR response_count < response_limit").
			Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
			UpdateColumn("response_count", gorm.Expr("response_count + 1"))
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrSubmissionClosed
		}
		// Association create inserts the answer rows together with the
		// response; any failure rolls back the slot claim as well.
		return tx.Create(response).Error
	})
}

func (r *responseRepository) FindByIDWithAnswers(id uint) (*model.Response, error) {
	var response model.Response
	if err := r.db.Preload("Answers").First(&response, id).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindByFormAndToken(formID uint, token string) (*model.Response, error) {
	var response model.Response
	err := r.db.Where("form_id = ? AND submission_token = ?", formID, token).First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindPageByFormID(formID uint, page, perPage int) ([]model.Response, int64, error) {
	var total int64
	if err := r.db.Model(&model.Response{}).Where("form_id = ?", formID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var responses []model.Response
	err := r.db.Preload("Answers").
		Where("form_id = ?", formID).
		Order("submitted_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&responses).Error
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

func (r *responseRepository) FindAllByFormID(formID uint) ([]model.Response, error) {
	var responses []model.Response
	err := r.db.Preload("Answers").
		Where("form_id = ?", formID).
		Order("submitted_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// Delete removes a response with its answers and releases the submission slot
// it claimed, so a limited form can accept a replacement submission.
func (r *responseRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var response model.Response
		if err := tx.Select("id", "form_id").First(&response, id).Error; err != nil {
			return err
		}
		if err := tx.Where("response_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Response{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&model.Form{}).
			Where("id = ? AND response_count > 0", response.FormID).
			UpdateColumn("response_count", gorm.Expr("response_count - 1")).Error
	})
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FormAdminService covers the owner side of the form lifecycle: creation,
// settings, structural edits and publication state.
type FormAdminService interface {
	CreateForm(actor *model.User, req dto.FormCreateDTO) (*dto.FormDetailDTO, error)
	ListForms(actor *model.User) ([]dto.FormSummaryDTO, error)
	GetForm(actor *model.User, formID uint) (*dto.FormDetailDTO, error)
	UpdateSettings(actor *model.User, formID uint, req dto.FormSettingsDTO) (*dto.FormDetailDTO, error)
	UpdateStructure(actor *model.User, formID uint, req dto.FormStructureDTO) (*dto.FormDetailDTO, error)
	Publish(actor *model.User, formID uint) (*dto.FormDetailDTO, error)
	Unpublish(actor *model.User, formID uint) (*dto.FormDetailDTO, error)
	Archive(actor *model.User, formID uint) (*dto.FormDetailDTO, error)
	DeleteForm(actor *model.User, formID uint) error
}

type formAdminService struct {
	db        *gorm.DB
	formRepo  repository.FormRepository
	auditRepo repository.AuditRepository
}

func NewFormAdminService(db *gorm.DB, formRepo repository.FormRepository, auditRepo repository.AuditRepository) FormAdminService {
	return &formAdminService{db: db, formRepo: formRepo, auditRepo: auditRepo}
}

func (s *formAdminService) CreateForm(actor *model.User, req dto.FormCreateDTO) (*dto.FormDetailDTO, error) {
	if !actor.CanCreateForms() {
		return nil, ErrForbidden
	}
	form := &model.Form{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.FormStatusDraft,
		CreatedBy:   actor.ID,
	}
	if err := s.formRepo.Create(form); err != nil {
		return nil, err
	}
	s.audit(actor, "create_form", form.ID, nil)
	return formToDetailDTO(form), nil
}

func (s *formAdminService) ListForms(actor *model.User) ([]dto.FormSummaryDTO, error) {
	forms, err := s.formRepo.FindAllByOwner(actor.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.FormSummaryDTO, 0, len(forms))
	for i := range forms {
		var summary dto.FormSummaryDTO
		if err := copier.Copy(&summary, &forms[i]); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *formAdminService) GetForm(actor *model.User, formID uint) (*dto.FormDetailDTO, error) {
	form, err := s.loadOwned(actor, formID)
	if err != nil {
		return nil, err
	}
	return formToDetailDTO(form), nil
}

func (s *formAdminService) UpdateSettings(actor *model.User, formID uint, req dto.FormSettingsDTO) (*dto.FormDetailDTO, error) {
	form, err := s.loadOwned(actor, formID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.ResponseLimit != nil {
		form.ResponseLimit = *req.ResponseLimit
	}
	if req.ExpiresAt != nil {
		form.ExpiresAt = req.ExpiresAt
	}
	if err := s.formRepo.Save(form); err != nil {
		return nil, err
	}
	s.audit(actor, "update_form_settings", form.ID, nil)
	return formToDetailDTO(form), nil
}

// UpdateStructure replaces the form's sections and questions with the
// submitted layout. Forms with stored responses are locked: changing
// questions under committed answers would corrupt them.
func (s *formAdminService) UpdateStructure(actor *model.User, formID uint, req dto.FormStructureDTO) (*dto.FormDetailDTO, error) {
	form, err := s.loadOwned(actor, formID)
	if err != nil {
		return nil, err
	}
	count, err := s.formRepo.CountResponses(formID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrFormLocked
	}
	if failures := validateStructure(form, req); len(failures) > 0 {
		return nil, &ValidationError{Failures: failures}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return applyStructure(tx, form, req)
	})
	if err != nil {
		return nil, err
	}
	s.audit(actor, "update_form_structure", form.ID, nil)
	return s.GetForm(actor, formID)
}

func (s *formAdminService) Publish(actor *model.User, formID uint) (*dto.FormDetailDTO, error) {
	return s.transition(actor, formID, "publish_form", func(form *model.Form) {
		form.Status = model.FormStatusPublished
		now := time.Now().UTC()
		form.PublishedAt = &now
	})
}

func (s *formAdminService) Unpublish(actor *model.User, formID uint) (*dto.FormDetailDTO, error) {
	return s.transition(actor, formID, "unpublish_form", func(form *model.Form) {
		form.Status = model.FormStatusDraft
	})
}

func (s *formAdminService) Archive(actor *model.User, formID uint) (*dto.FormDetailDTO, error) {
	return s.transition(actor, formID, "archive_form", func(form *model.Form) {
		form.Status = model.FormStatusArchived
	})
}

func (s *formAdminService) DeleteForm(actor *model.User, formID uint) error {
	form, err := s.loadOwned(actor, formID)
	if err != nil {
		return err
	}
	if err := s.formRepo.Delete(form.ID); err != nil {
		return err
	}
	s.audit(actor, "delete_form", form.ID, nil)
	return nil
}

func (s *formAdminService) transition(actor *model.User, formID uint, action string, apply func(*model.Form)) (*dto.FormDetailDTO, error) {
	form, err := s.loadOwned(actor, formID)
	if err != nil {
		return nil, err
	}
	apply(form)
	if err := s.formRepo.Save(form); err != nil {
		return nil, err
	}
	s.audit(actor, action, form.ID, nil)
	return formToDetailDTO(form), nil
}

func (s *formAdminService) loadOwned(actor *model.User, formID uint) (*model.Form, error) {
	form, err := s.formRepo.FindByIDWithSchema(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if form.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return form, nil
}

func (s *formAdminService) audit(actor *model.User, action string, formID uint, details json.RawMessage) {
	entry := &model.AuditLog{
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "form",
		ResourceID:   formID,
		Details:      details,
	}
	if err := s.auditRepo.Record(entry); err != nil {
		log.Warn().Err(err).Str("action", action).Uint("form_id", formID).Msg("failed to record audit entry")
	}
}

// validateStructure checks the submitted layout without touching storage, so
// a rejected update leaves the form exactly as it was.
func validateStructure(form *model.Form, req dto.FormStructureDTO) []dto.FieldError {
	existingSections := make(map[uint]bool)
	existingQuestions := make(map[uint]bool)
	for _, section := range form.Sections {
		existingSections[section.ID] = true
		for _, question := range section.Questions {
			existingQuestions[question.ID] = true
		}
	}

	var failures []dto.FieldError
	for _, section := range req.Sections {
		if section.ID != nil && !existingSections[*section.ID] {
			failures = append(failures, dto.FieldError{
				Kind:    dto.FailureUnknownQuestion,
				Message: fmt.Sprintf("section %d does not belong to this form", *section.ID),
			})
		}
		for _, question := range section.Questions {
			failures = append(failures, validateQuestionInput(question, existingQuestions)...)
		}
	}
	return failures
}

func validateQuestionInput(question dto.QuestionInputDTO, existing map[uint]bool) []dto.FieldError {
	var failures []dto.FieldError
	id := uint(0)
	if question.ID != nil {
		id = *question.ID
		if !existing[id] {
			failures = append(failures, dto.FieldError{
				QuestionID: id,
				Kind:       dto.FailureUnknownQuestion,
				Message:    "question does not belong to this form",
			})
		}
	}

	qType := model.QuestionType(question.Type)
	if !qType.Valid() {
		failures = append(failures, dto.FieldError{
			QuestionID: id,
			Kind:       dto.FailureTypeMismatch,
			Message:    fmt.Sprintf("unknown question type %q", question.Type),
		})
		return failures
	}
	if qType.HasOptions() && len(question.Options) == 0 {
		failures = append(failures, dto.FieldError{
			QuestionID: id,
			Kind:       dto.FailureInvalidOption,
			Message:    "choice questions need at least one option",
		})
	}
	if len(question.Rules) > 0 {
		check := model.Question{Type: qType, Rules: question.Rules}
		if err := check.CheckRules(); err != nil {
			failures = append(failures, dto.FieldError{
				QuestionID: id,
				Kind:       dto.FailureFormatInvalid,
				Message:    "validation rules are malformed",
			})
		}
	}
	return failures
}

// applyStructure diffs the submitted layout against the stored one inside an
// open transaction: kept rows are updated in place, new rows created, and
// anything the layout no longer mentions is deleted.
func applyStructure(tx *gorm.DB, form *model.Form, req dto.FormStructureDTO) error {
	keptSections := make(map[uint]bool)
	keptQuestions := make(map[uint]bool)

	for i, sectionInput := range req.Sections {
		section := model.Section{
			FormID:      form.ID,
			Title:       sectionInput.Title,
			Description: sectionInput.Description,
			Order:       i,
		}
		if sectionInput.ID != nil {
			section.ID = *sectionInput.ID
			keptSections[section.ID] = true
			if err := tx.Model(&model.Section{}).Where("id = ?", section.ID).
				Updates(map[string]any{
					"title":       section.Title,
					"description": section.Description,
					"order":       section.Order,
				}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&section).Error; err != nil {
				return err
			}
			keptSections[section.ID] = true
		}

		for j, questionInput := range sectionInput.Questions {
			options, err := json.Marshal(questionInput.Options)
			if err != nil {
				return err
			}
			question := model.Question{
				SectionID: section.ID,
				Type:      model.QuestionType(questionInput.Type),
				Text:      questionInput.Text,
				Required:  questionInput.Required,
				Order:     j,
				Options:   options,
				Rules:     questionInput.Rules,
			}
			if questionInput.ID != nil {
				question.ID = *questionInput.ID
				keptQuestions[question.ID] = true
				if err := tx.Model(&model.Question{}).Where("id = ?", question.ID).
					Updates(map[string]any{
						"section_id": question.SectionID,
						"type":       question.Type,
						"text":       question.Text,
						"required":   question.Required,
						"order":      question.Order,
						"options":    question.Options,
						"rules":      question.Rules,
					}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Create(&question).Error; err != nil {
					return err
				}
				keptQuestions[question.ID] = true
			}
		}
	}

	for _, section := range form.Sections {
		for _, question := range section.Questions {
			if !keptQuestions[question.ID] {
				if err := tx.Delete(&model.Question{}, question.ID).Error; err != nil {
					return err
				}
			}
		}
		if !keptSections[section.ID] {
			if err := tx.Delete(&model.Section{}, section.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func formToDetailDTO(form *model.Form) *dto.FormDetailDTO {
	detail := &dto.FormDetailDTO{
		ID:            form.ID,
		Title:         form.Title,
		Description:   form.Description,
		Status:        form.Status,
		CreatedBy:     form.CreatedBy,
		ResponseCount: form.ResponseCount,
		ResponseLimit: form.ResponseLimit,
		ExpiresAt:     form.ExpiresAt,
		PublishedAt:   form.PublishedAt,
		Sections:      make([]dto.SectionDTO, 0, len(form.Sections)),
		CreatedAt:     form.CreatedAt,
		UpdatedAt:     form.UpdatedAt,
	}
	for _, section := range form.Sections {
		detail.Sections = append(detail.Sections, sectionToDTO(&section))
	}
	return detail
}

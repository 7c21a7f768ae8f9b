package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"gorm.io/gorm"
)

// LibraryService manages the shared question library: standalone questions
// that creators save once and copy into forms later. Visibility follows the
// template rules, public entries plus the actor's own.
type LibraryService interface {
	ListQuestions(actor *model.User) ([]dto.LibraryQuestionDTO, error)
	GetQuestion(actor *model.User, questionID uint) (*dto.LibraryQuestionDTO, error)
	AddQuestion(actor *model.User, req dto.LibraryQuestionCreateDTO) (*dto.LibraryQuestionDTO, error)
	DeleteQuestion(actor *model.User, questionID uint) error
}

type libraryService struct {
	libraryRepo repository.LibraryRepository
}

func NewLibraryService(libraryRepo repository.LibraryRepository) LibraryService {
	return &libraryService{libraryRepo: libraryRepo}
}

func (s *libraryService) ListQuestions(actor *model.User) ([]dto.LibraryQuestionDTO, error) {
	questions, err := s.libraryRepo.FindAvailable(actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LibraryQuestionDTO, 0, len(questions))
	for i := range questions {
		entry, err := libraryQuestionToDTO(&questions[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (s *libraryService) GetQuestion(actor *model.User, questionID uint) (*dto.LibraryQuestionDTO, error) {
	question, err := s.loadVisibleQuestion(actor, questionID)
	if err != nil {
		return nil, err
	}
	return libraryQuestionToDTO(question)
}

func (s *libraryService) AddQuestion(actor *model.User, req dto.LibraryQuestionCreateDTO) (*dto.LibraryQuestionDTO, error) {
	if !actor.CanCreateForms() {
		return nil, ErrForbidden
	}

	var failures []dto.FieldError
	qType := model.QuestionType(req.Type)
	if !qType.Valid() {
		failures = append(failures, dto.FieldError{
			Kind:    dto.FailureTypeMismatch,
			Message: fmt.Sprintf("unknown question type %q", req.Type),
		})
	} else {
		if qType.HasOptions() && len(req.Options) == 0 {
			failures = append(failures, dto.FieldError{
				Kind:    dto.FailureInvalidOption,
				Message: "choice questions need at least one option",
			})
		}
		if len(req.Rules) > 0 {
			check := model.Question{Type: qType, Rules: req.Rules}
			if err := check.CheckRules(); err != nil {
				failures = append(failures, dto.FieldError{
					Kind:    dto.FailureFormatInvalid,
					Message: "validation rules are malformed",
				})
			}
		}
	}
	if len(failures) > 0 {
		return nil, &ValidationError{Failures: failures}
	}

	var options json.RawMessage
	if len(req.Options) > 0 {
		encoded, err := json.Marshal(req.Options)
		if err != nil {
			return nil, err
		}
		options = encoded
	}
	question := &model.LibraryQuestion{
		Text:      req.Text,
		Type:      qType,
		Required:  req.Required,
		IsPublic:  req.IsPublic,
		CreatedBy: actor.ID,
		Options:   options,
		Rules:     req.Rules,
	}
	if err := s.libraryRepo.Create(question); err != nil {
		return nil, err
	}
	return libraryQuestionToDTO(question)
}

func (s *libraryService) DeleteQuestion(actor *model.User, questionID uint) error {
	question, err := s.loadVisibleQuestion(actor, questionID)
	if err != nil {
		return err
	}
	if question.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	return s.libraryRepo.Delete(questionID)
}

func (s *libraryService) loadVisibleQuestion(actor *model.User, questionID uint) (*model.LibraryQuestion, error) {
	question, err := s.libraryRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryQuestionNotFound
		}
		return nil, err
	}
	if !question.IsPublic && question.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return nil, ErrLibraryQuestionNotFound
	}
	return question, nil
}

func libraryQuestionToDTO(question *model.LibraryQuestion) (*dto.LibraryQuestionDTO, error) {
	options, err := question.OptionValues()
	if err != nil {
		return nil, err
	}
	return &dto.LibraryQuestionDTO{
		ID:        question.ID,
		Text:      question.Text,
		Type:      string(question.Type),
		Required:  question.Required,
		IsPublic:  question.IsPublic,
		CreatedBy: question.CreatedBy,
		Options:   options,
		Rules:     question.Rules,
		CreatedAt: question.CreatedAt,
	}, nil
}

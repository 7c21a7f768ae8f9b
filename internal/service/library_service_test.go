package service

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"gorm.io/gorm"
)

type fakeLibraryRepo struct {
	questions map[uint]*model.LibraryQuestion
	nextID    uint
}

func newFakeLibraryRepo() *fakeLibraryRepo {
	return &fakeLibraryRepo{questions: make(map[uint]*model.LibraryQuestion)}
}

func (f *fakeLibraryRepo) Create(question *model.LibraryQuestion) error {
	f.nextID++
	question.ID = f.nextID
	f.questions[question.ID] = question
	return nil
}

func (f *fakeLibraryRepo) FindByID(id uint) (*model.LibraryQuestion, error) {
	if question, ok := f.questions[id]; ok {
		return question, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLibraryRepo) FindAvailable(userID uint) ([]model.LibraryQuestion, error) {
	var out []model.LibraryQuestion
	for _, question := range f.questions {
		if question.IsPublic || question.CreatedBy == userID {
			out = append(out, *question)
		}
	}
	return out, nil
}

func (f *fakeLibraryRepo) Delete(id uint) error {
	delete(f.questions, id)
	return nil
}

func TestAddLibraryQuestion(t *testing.T) {
	libraryRepo := newFakeLibraryRepo()
	svc := NewLibraryService(libraryRepo)

	created, err := svc.AddQuestion(actor(7, model.RoleCreator), dto.LibraryQuestionCreateDTO{
		Text:     "How satisfied are you?",
		Type:     string(model.QuestionSingleChoice),
		Required: true,
		Options:  []string{"very", "somewhat", "not at all"},
	})
	if err != nil {
		t.Fatalf("AddQuestion returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"very", "somewhat", "not at all"}, created.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	stored, err := libraryRepo.FindByID(created.ID)
	if err != nil {
		t.Fatalf("stored question lookup: %v", err)
	}
	if stored.Type != model.QuestionSingleChoice || !stored.Required || stored.CreatedBy != 7 {
		t.Fatalf("stored question = %+v", stored)
	}
}

func TestAddLibraryQuestionRejectsInvalidDefinitions(t *testing.T) {
	svc := NewLibraryService(newFakeLibraryRepo())
	owner := actor(7, model.RoleCreator)

	tests := []struct {
		name     string
		req      dto.LibraryQuestionCreateDTO
		wantKind dto.FailureKind
	}{
		{
			name:     "unknown type",
			req:      dto.LibraryQuestionCreateDTO{Text: "q", Type: "slider"},
			wantKind: dto.FailureTypeMismatch,
		},
		{
			name:     "choice without options",
			req:      dto.LibraryQuestionCreateDTO{Text: "q", Type: string(model.QuestionDropdown)},
			wantKind: dto.FailureInvalidOption,
		},
		{
			name: "malformed rules",
			req: dto.LibraryQuestionCreateDTO{
				Text:  "q",
				Type:  string(model.QuestionNumber),
				Rules: []byte(`{"min":"low"}`),
			},
			wantKind: dto.FailureFormatInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddQuestion(owner, tt.req)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if len(validationErr.Failures) != 1 || validationErr.Failures[0].Kind != tt.wantKind {
				t.Fatalf("failures = %+v, want one %s", validationErr.Failures, tt.wantKind)
			}
		})
	}

	if _, err := svc.AddQuestion(actor(2, model.RoleRespondent), dto.LibraryQuestionCreateDTO{
		Text: "q", Type: string(model.QuestionShortText),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("respondent add: got %v, want ErrForbidden", err)
	}
}

func TestLibraryQuestionVisibility(t *testing.T) {
	libraryRepo := newFakeLibraryRepo()
	svc := NewLibraryService(libraryRepo)

	private := &model.LibraryQuestion{Text: "private", Type: model.QuestionShortText, CreatedBy: 7}
	public := &model.LibraryQuestion{Text: "public", Type: model.QuestionShortText, CreatedBy: 8, IsPublic: true}
	for _, question := range []*model.LibraryQuestion{private, public} {
		if err := libraryRepo.Create(question); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	if _, err := svc.GetQuestion(actor(7, model.RoleCreator), private.ID); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if _, err := svc.GetQuestion(actor(8, model.RoleCreator), private.ID); !errors.Is(err, ErrLibraryQuestionNotFound) {
		t.Fatalf("stranger: got %v, want ErrLibraryQuestionNotFound", err)
	}
	if _, err := svc.GetQuestion(actor(1, model.RoleAdmin), private.ID); err != nil {
		t.Fatalf("admin denied: %v", err)
	}

	listed, err := svc.ListQuestions(actor(9, model.RoleCreator))
	if err != nil {
		t.Fatalf("ListQuestions returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].Text != "public" {
		t.Fatalf("stranger list = %+v, want only the public entry", listed)
	}

	if err := svc.DeleteQuestion(actor(9, model.RoleCreator), public.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteQuestion(actor(8, model.RoleCreator), public.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

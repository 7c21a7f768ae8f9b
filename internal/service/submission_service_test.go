package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"gorm.io/gorm"
)

type fakeFormService struct {
	form *model.Form
	err  error
}

func (f *fakeFormService) LoadSchema(formID uint, forSubmission bool) (*model.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

func (f *fakeFormService) GetPublicForm(formID uint) (*dto.FormDTO, error) {
	form, err := f.LoadSchema(formID, true)
	if err != nil {
		return nil, err
	}
	return formToDTO(form), nil
}

type fakeResponseRepo struct {
	committed []*model.Response
	commitErr error
	byToken   map[string]*model.Response
	all       []model.Response
	nextID    uint
	// missFirstLookup makes the first FindByFormAndToken call miss, to model
	// a retry racing past the pre-check before the original commit landed.
	missFirstLookup bool
	// form, when set, models the slot bookkeeping: Commit re-checks the
	// submission window and claims a slot, Delete releases it.
	form *model.Form
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{byToken: make(map[string]*model.Response), nextID: 100}
}

func (f *fakeResponseRepo) Commit(response *model.Response) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	if f.form != nil {
		if !f.form.AcceptsSubmissions(time.Now()) {
			return repository.ErrSubmissionClosed
		}
		f.form.ResponseCount++
	}
	f.nextID++
	response.ID = f.nextID
	response.SubmittedAt = time.Now()
	f.committed = append(f.committed, response)
	f.byToken[response.SubmissionToken] = response
	return nil
}

func (f *fakeResponseRepo) FindByIDWithAnswers(id uint) (*model.Response, error) {
	for _, response := range f.committed {
		if response.ID == id {
			return response, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeResponseRepo) FindByFormAndToken(formID uint, token string) (*model.Response, error) {
	if f.missFirstLookup {
		f.missFirstLookup = false
		return nil, gorm.ErrRecordNotFound
	}
	if response, ok := f.byToken[token]; ok {
		return response, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeResponseRepo) FindPageByFormID(formID uint, page, perPage int) ([]model.Response, int64, error) {
	start := (page - 1) * perPage
	if start >= len(f.all) {
		return nil, int64(len(f.all)), nil
	}
	end := start + perPage
	if end > len(f.all) {
		end = len(f.all)
	}
	return f.all[start:end], int64(len(f.all)), nil
}

func (f *fakeResponseRepo) FindAllByFormID(formID uint) ([]model.Response, error) {
	return f.all, nil
}

func (f *fakeResponseRepo) Delete(id uint) error {
	for i, response := range f.committed {
		if response.ID == id {
			f.committed = append(f.committed[:i], f.committed[i+1:]...)
			break
		}
	}
	if f.form != nil && f.form.ResponseCount > 0 {
		f.form.ResponseCount--
	}
	return nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (f *fakeAuditRepo) Record(entry *model.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

// surveyForm builds a published form with one section holding a required
// short text (id 1), an optional rating (id 2) and a required single choice
// (id 3).
func surveyForm() *model.Form {
	text := question(1, model.QuestionShortText, true, nil, "")
	rating := question(2, model.QuestionRating, false, nil, "")
	choice := question(3, model.QuestionSingleChoice, true, []string{"yes", "no"}, "")

	section := model.Section{
		Title:     "Main",
		Questions: []model.Question{*text, *rating, *choice},
	}
	section.ID = 20

	form := &model.Form{
		Title:    "Customer survey",
		Status:   model.FormStatusPublished,
		Sections: []model.Section{section},
	}
	form.ID = 10
	return form
}

func newTestSubmissionService(form *model.Form, responseRepo *fakeResponseRepo) (SubmissionService, *fakeAuditRepo) {
	auditRepo := &fakeAuditRepo{}
	svc := NewSubmissionService(
		&fakeFormService{form: form},
		newTestValidator(),
		responseRepo,
		auditRepo,
	)
	return svc, auditRepo
}

func TestSubmitStoresAnswersInSchemaOrder(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, auditRepo := newTestSubmissionService(surveyForm(), responseRepo)

	// Answers arrive out of schema order.
	result, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 3, Value: "yes"},
		{QuestionID: 1, Value: "great service"},
		{QuestionID: 2, Value: 5.0},
	}}, dto.RequestMeta{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.Duplicate {
		t.Fatal("fresh submission marked duplicate")
	}

	if len(responseRepo.committed) != 1 {
		t.Fatalf("committed %d responses, want 1", len(responseRepo.committed))
	}
	stored := responseRepo.committed[0]
	var gotOrder []uint
	for _, answer := range stored.Answers {
		gotOrder = append(gotOrder, answer.QuestionID)
	}
	if diff := cmp.Diff([]uint{1, 2, 3}, gotOrder); diff != "" {
		t.Fatalf("answer order mismatch (-want +got):\n%s", diff)
	}
	if stored.SubmissionToken == "" {
		t.Fatal("expected a generated submission token")
	}
	if stored.IPAddress != "10.0.0.1" {
		t.Fatalf("ip address = %q", stored.IPAddress)
	}
	if len(auditRepo.entries) != 1 || auditRepo.entries[0].Action != "submit_response" {
		t.Fatalf("audit entries = %+v", auditRepo.entries)
	}
}

func TestSubmitOptionalOmittedIsAccepted(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "fine"},
		{QuestionID: 3, Value: "no"},
	}}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if got := len(responseRepo.committed[0].Answers); got != 2 {
		t.Fatalf("stored %d answers, want 2", got)
	}
}

func TestSubmitCollectsAllFailures(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 2, Value: 7.0},      // out of the 1-5 default scale
		{QuestionID: 3, Value: "maybe"},  // not an option
		{QuestionID: 99, Value: "stray"}, // unknown question
	}}, dto.RequestMeta{})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	kinds := make(map[dto.FailureKind]int)
	for _, failure := range validationErr.Failures {
		kinds[failure.Kind]++
	}
	want := map[dto.FailureKind]int{
		dto.FailureOutOfRange:           1,
		dto.FailureInvalidOption:        1,
		dto.FailureUnknownQuestion:      1,
		dto.FailureRequiredFieldMissing: 1, // question 1 never answered
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("failure kinds mismatch (-want +got):\n%s", diff)
	}

	// A rejected submission leaves no partial state behind.
	if len(responseRepo.committed) != 0 {
		t.Fatalf("rejected submission committed %d responses", len(responseRepo.committed))
	}
}

func TestSubmitDuplicateAnswerRejected(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "first"},
		{QuestionID: 1, Value: "second"},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	found := false
	for _, failure := range validationErr.Failures {
		if failure.Kind == dto.FailureDuplicateAnswer && failure.QuestionID == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no duplicate_answer failure in %+v", validationErr.Failures)
	}
}

func TestSubmitDuplicateAfterEmptyOptionalRejected(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	// The first occurrence of the optional rating is empty, so it produces
	// neither a stored answer nor a failure. The repeat must still be caught.
	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "hello"},
		{QuestionID: 2, Value: ""},
		{QuestionID: 2, Value: float64(4)},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if len(validationErr.Failures) != 1 {
		t.Fatalf("got %d failures, want 1: %+v", len(validationErr.Failures), validationErr.Failures)
	}
	failure := validationErr.Failures[0]
	if failure.Kind != dto.FailureDuplicateAnswer || failure.QuestionID != 2 {
		t.Fatalf("got %+v, want duplicate_answer on question 2", failure)
	}
	if len(responseRepo.committed) != 0 {
		t.Fatalf("rejected submission was committed")
	}
}

func TestSubmitWindowClosed(t *testing.T) {
	form := surveyForm()
	form.ResponseLimit = 5
	form.ResponseCount = 5
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(form, responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "x"},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})
	if !errors.Is(err, ErrSubmissionWindowClosed) {
		t.Fatalf("got %v, want ErrSubmissionWindowClosed", err)
	}
}

func TestSubmitClosedAtCommitTime(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	responseRepo.commitErr = repository.ErrSubmissionClosed
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "x"},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})
	if !errors.Is(err, ErrSubmissionWindowClosed) {
		t.Fatalf("got %v, want ErrSubmissionWindowClosed", err)
	}
}

func TestDeletedResponseReleasesSubmissionSlot(t *testing.T) {
	form := surveyForm()
	form.CreatedBy = 7
	form.ResponseLimit = 1
	responseRepo := newFakeResponseRepo()
	responseRepo.form = form
	submissions, _ := newTestSubmissionService(form, responseRepo)
	responses := NewResponseService(&fakeFormRepo{form: form}, responseRepo)

	answers := []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "hello"},
		{QuestionID: 3, Value: "yes"},
	}
	first, err := submissions.Submit(10, dto.SubmitFormDTO{Answers: answers}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := submissions.Submit(10, dto.SubmitFormDTO{Answers: answers}, dto.RequestMeta{}); !errors.Is(err, ErrSubmissionWindowClosed) {
		t.Fatalf("submit at limit: got %v, want ErrSubmissionWindowClosed", err)
	}

	if err := responses.DeleteResponse(actor(7, model.RoleCreator), 10, first.ResponseID); err != nil {
		t.Fatalf("delete response: %v", err)
	}

	// Deleting the only response frees the slot the limit-1 form had claimed.
	if _, err := submissions.Submit(10, dto.SubmitFormDTO{Answers: answers}, dto.RequestMeta{}); err != nil {
		t.Fatalf("submit after delete: %v", err)
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	responseRepo.commitErr = errors.New("connection reset")
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "x"},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("got %v, want ErrStorageFailure", err)
	}
}

func TestSubmitTokenIdempotency(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	answers := []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "hello"},
		{QuestionID: 3, Value: "yes"},
	}
	first, err := svc.Submit(10, dto.SubmitFormDTO{SubmissionToken: "tok-1", Answers: answers}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(10, dto.SubmitFormDTO{SubmissionToken: "tok-1", Answers: answers}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("second submit with same token not marked duplicate")
	}
	if second.ResponseID != first.ResponseID {
		t.Fatalf("duplicate returned response %d, want %d", second.ResponseID, first.ResponseID)
	}
	if len(responseRepo.committed) != 1 {
		t.Fatalf("committed %d responses, want 1", len(responseRepo.committed))
	}
}

func TestSubmitTokenRaceResolvedByUniqueIndex(t *testing.T) {
	responseRepo := newFakeResponseRepo()
	// The pre-check misses, the commit hits the unique index, and the refetch
	// finds the response the racing retry committed.
	existing := &model.Response{FormID: 10, SubmissionToken: "tok-2"}
	existing.ID = 55
	responseRepo.byToken["tok-2"] = existing
	responseRepo.missFirstLookup = true
	responseRepo.commitErr = gorm.ErrDuplicatedKey
	svc, _ := newTestSubmissionService(surveyForm(), responseRepo)

	result, err := svc.Submit(10, dto.SubmitFormDTO{SubmissionToken: "tok-2", Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "hello"},
		{QuestionID: 3, Value: "yes"},
	}}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("raced submit: %v", err)
	}
	if !result.Duplicate || result.ResponseID != 55 {
		t.Fatalf("raced submit result = %+v, want duplicate of response 55", result)
	}
}

func TestSubmitValueRoundTrip(t *testing.T) {
	form := surveyForm()
	multi := question(4, model.QuestionMultiChoice, false, []string{"a", "b", "c"}, "")
	form.Sections[0].Questions = append(form.Sections[0].Questions, *multi)

	responseRepo := newFakeResponseRepo()
	svc, _ := newTestSubmissionService(form, responseRepo)

	_, err := svc.Submit(10, dto.SubmitFormDTO{Answers: []dto.SubmittedAnswerDTO{
		{QuestionID: 1, Value: "text"},
		{QuestionID: 3, Value: "yes"},
		{QuestionID: 4, Value: []any{"c", "b"}},
	}}, dto.RequestMeta{})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	stored := responseRepo.committed[0]
	var multiValue []string
	for _, answer := range stored.Answers {
		if answer.QuestionID == 4 {
			if err := json.Unmarshal(answer.Value, &multiValue); err != nil {
				t.Fatalf("multi choice value not a string list: %v", err)
			}
		}
	}
	if diff := cmp.Diff([]string{"b", "c"}, multiValue); diff != "" {
		t.Fatalf("multi choice stored value mismatch (-want +got):\n%s", diff)
	}
}

package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/middleware"
	"github.com/lshigami/Bowerbirds/internal/service"
	"github.com/rs/zerolog/log"
)

type FormController struct {
	formService       service.FormService
	submissionService service.SubmissionService
}

func NewFormController(formService service.FormService, submissionService service.SubmissionService) *FormController {
	return &FormController{formService: formService, submissionService: submissionService}
}

// GetForm godoc
// @Summary Get a published form
// @Description Get the full schema of a published form: sections and questions in display order, for rendering and answering.
// @Tags Public - Forms
// @Produce json
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Form ID format"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Failure 409 {object} dto.ErrorResponse "Form is not published"
// @Router /forms/{form_id} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	formID, ok := parseFormID(ctx)
	if !ok {
		return
	}
	form, err := c.formService.GetPublicForm(formID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFormNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Form not found"})
		case errors.Is(err, service.ErrFormNotPublished):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Form is not published"})
		default:
			log.Error().Err(err).Uint("formID", formID).Msg("GetForm: Service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve form"})
		}
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// SubmitForm godoc
// @Summary Submit a response to a published form
// @Description Validate every answer against the form schema and persist the response atomically. All validation failures are returned together. A repeated submission_token returns the original response.
// @Tags Public - Forms
// @Accept json
// @Produce json
// @Param form_id path int true "Form ID"
// @Param submission body dto.SubmitFormDTO true "Submitted answers"
// @Success 201 {object} dto.SubmitResultDTO "Response committed"
// @Success 200 {object} dto.SubmitResultDTO "Duplicate submission token, original response returned"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Failure 409 {object} dto.ErrorResponse "Form is not accepting submissions"
// @Failure 422 {object} dto.ValidationErrorResponse "One or more answers are invalid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /forms/{form_id}/submissions [post]
func (c *FormController) SubmitForm(ctx *gin.Context) {
	formID, ok := parseFormID(ctx)
	if !ok {
		return
	}
	var req dto.SubmitFormDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitForm: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	meta := dto.RequestMeta{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}
	if user := middleware.CurrentUser(ctx); user != nil {
		meta.UserID = &user.ID
	}

	result, err := c.submissionService.Submit(formID, req, meta)
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
				Message:  "Submission rejected",
				Failures: validationErr.Failures,
			})
		case errors.Is(err, service.ErrFormNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Form not found"})
		case errors.Is(err, service.ErrFormNotPublished), errors.Is(err, service.ErrSubmissionWindowClosed):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Form is not accepting submissions"})
		default:
			log.Error().Err(err).Uint("formID", formID).Msg("SubmitForm: Service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to store submission"})
		}
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	ctx.JSON(status, result)
}

func parseFormID(ctx *gin.Context) (uint, bool) {
	raw := ctx.Param("form_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Form ID format"})
		return 0, false
	}
	return uint(id), true
}

package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/middleware"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/service"
	"github.com/rs/zerolog/log"
)

type FormAdminController struct {
	formAdminService service.FormAdminService
}

func NewFormAdminController(formAdminService service.FormAdminService) *FormAdminController {
	return &FormAdminController{formAdminService: formAdminService}
}

// CreateForm godoc
// @Summary (Owner) Create a new draft form
// @Tags Admin - Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param form body dto.FormCreateDTO true "Form title and description"
// @Success 201 {object} dto.FormDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Role cannot create forms"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/forms [post]
func (c *FormAdminController) CreateForm(ctx *gin.Context) {
	var req dto.FormCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	form, err := c.formAdminService.CreateForm(middleware.CurrentUser(ctx), req)
	if err != nil {
		respondFormError(ctx, err, "CreateForm")
		return
	}
	ctx.JSON(http.StatusCreated, form)
}

// ListForms godoc
// @Summary (Owner) List own forms
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.FormSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/forms [get]
func (c *FormAdminController) ListForms(ctx *gin.Context) {
	forms, err := c.formAdminService.ListForms(middleware.CurrentUser(ctx))
	if err != nil {
		respondFormError(ctx, err, "ListForms")
		return
	}
	ctx.JSON(http.StatusOK, forms)
}

// GetForm godoc
// @Summary (Owner) Get a form with its full structure
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Form ID format"
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id} [get]
func (c *FormAdminController) GetForm(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	form, err := c.formAdminService.GetForm(middleware.CurrentUser(ctx), formID)
	if err != nil {
		respondFormError(ctx, err, "GetForm")
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// UpdateSettings godoc
// @Summary (Owner) Update form title, description and submission window
// @Tags Admin - Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param settings body dto.FormSettingsDTO true "Settings to change, omitted fields keep their value"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id} [patch]
func (c *FormAdminController) UpdateSettings(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	var req dto.FormSettingsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	form, err := c.formAdminService.UpdateSettings(middleware.CurrentUser(ctx), formID, req)
	if err != nil {
		respondFormError(ctx, err, "UpdateSettings")
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// UpdateStructure godoc
// @Summary (Owner) Replace the form's sections and questions
// @Description Diff the submitted layout against the stored one: kept IDs are updated, new entries created, missing ones deleted. Rejected once the form has responses.
// @Tags Admin - Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param structure body dto.FormStructureDTO true "Full section and question layout"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Failure 409 {object} dto.ErrorResponse "Form already has responses"
// @Failure 422 {object} dto.ValidationErrorResponse "Layout is invalid"
// @Router /admin/forms/{form_id}/structure [put]
func (c *FormAdminController) UpdateStructure(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	var req dto.FormStructureDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	form, err := c.formAdminService.UpdateStructure(middleware.CurrentUser(ctx), formID, req)
	if err != nil {
		respondFormError(ctx, err, "UpdateStructure")
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// Publish godoc
// @Summary (Owner) Publish a form so it accepts submissions
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/publish [post]
func (c *FormAdminController) Publish(ctx *gin.Context) {
	c.lifecycle(ctx, c.formAdminService.Publish)
}

// Unpublish godoc
// @Summary (Owner) Put a published form back into draft
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/unpublish [post]
func (c *FormAdminController) Unpublish(ctx *gin.Context) {
	c.lifecycle(ctx, c.formAdminService.Unpublish)
}

// Archive godoc
// @Summary (Owner) Archive a form
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/archive [post]
func (c *FormAdminController) Archive(ctx *gin.Context) {
	c.lifecycle(ctx, c.formAdminService.Archive)
}

// DeleteForm godoc
// @Summary (Owner) Delete a form and all its responses
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 204 "Form deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the form owner"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id} [delete]
func (c *FormAdminController) DeleteForm(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	if err := c.formAdminService.DeleteForm(middleware.CurrentUser(ctx), formID); err != nil {
		respondFormError(ctx, err, "DeleteForm")
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *FormAdminController) lifecycle(ctx *gin.Context, transition func(*model.User, uint) (*dto.FormDetailDTO, error)) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	form, err := transition(middleware.CurrentUser(ctx), formID)
	if err != nil {
		respondFormError(ctx, err, "Lifecycle")
		return
	}
	ctx.JSON(http.StatusOK, form)
}

func parsePathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

// respondFormError maps service errors common to the admin endpoints.
func respondFormError(ctx *gin.Context, err error, operation string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Message:  "Request rejected",
			Failures: validationErr.Failures,
		})
	case errors.Is(err, service.ErrFormNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Form not found"})
	case errors.Is(err, service.ErrFormLocked):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Form already has responses, structure is locked"})
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Operation not allowed"})
	default:
		log.Error().Err(err).Str("operation", operation).Msg("Form admin: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/middleware"
	"github.com/lshigami/Bowerbirds/internal/service"
	"github.com/rs/zerolog/log"
)

type TemplateController struct {
	templateService service.TemplateService
}

func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{templateService: templateService}
}

// ListTemplates godoc
// @Summary (Owner) List available templates
// @Description Public templates plus the caller's own.
// @Tags Admin - Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TemplateDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/templates [get]
func (c *TemplateController) ListTemplates(ctx *gin.Context) {
	templates, err := c.templateService.ListTemplates(middleware.CurrentUser(ctx))
	if err != nil {
		respondTemplateError(ctx, err, "ListTemplates")
		return
	}
	ctx.JSON(http.StatusOK, templates)
}

// GetTemplate godoc
// @Summary (Owner) Get one template
// @Tags Admin - Templates
// @Produce json
// @Security BearerAuth
// @Param template_id path int true "Template ID"
// @Success 200 {object} dto.TemplateDTO
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/{template_id} [get]
func (c *TemplateController) GetTemplate(ctx *gin.Context) {
	templateID, ok := parsePathID(ctx, "template_id")
	if !ok {
		return
	}
	template, err := c.templateService.GetTemplate(middleware.CurrentUser(ctx), templateID)
	if err != nil {
		respondTemplateError(ctx, err, "GetTemplate")
		return
	}
	ctx.JSON(http.StatusOK, template)
}

// CreateTemplate godoc
// @Summary (Owner) Create a template
// @Description Create from an existing form (from_form_id) or from a raw content tree.
// @Tags Admin - Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body dto.TemplateCreateDTO true "Template data"
// @Success 201 {object} dto.TemplateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Role cannot create templates"
// @Failure 404 {object} dto.ErrorResponse "Source form not found"
// @Failure 422 {object} dto.ValidationErrorResponse "Template content is invalid"
// @Router /admin/templates [post]
func (c *TemplateController) CreateTemplate(ctx *gin.Context) {
	var req dto.TemplateCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	template, err := c.templateService.CreateTemplate(middleware.CurrentUser(ctx), req)
	if err != nil {
		respondTemplateError(ctx, err, "CreateTemplate")
		return
	}
	ctx.JSON(http.StatusCreated, template)
}

// DeleteTemplate godoc
// @Summary (Owner) Delete a template
// @Tags Admin - Templates
// @Produce json
// @Security BearerAuth
// @Param template_id path int true "Template ID"
// @Success 204 "Template deleted"
// @Failure 403 {object} dto.ErrorResponse "Only the creator or an admin can delete"
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/{template_id} [delete]
func (c *TemplateController) DeleteTemplate(ctx *gin.Context) {
	templateID, ok := parsePathID(ctx, "template_id")
	if !ok {
		return
	}
	if err := c.templateService.DeleteTemplate(middleware.CurrentUser(ctx), templateID); err != nil {
		respondTemplateError(ctx, err, "DeleteTemplate")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// InstantiateTemplate godoc
// @Summary (Owner) Create a new draft form from a template
// @Tags Admin - Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template_id path int true "Template ID"
// @Param form body dto.FormCreateDTO false "Title for the new form, template name when omitted"
// @Success 201 {object} dto.FormDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Role cannot create forms"
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/{template_id}/instantiate [post]
func (c *TemplateController) InstantiateTemplate(ctx *gin.Context) {
	templateID, ok := parsePathID(ctx, "template_id")
	if !ok {
		return
	}
	var req dto.FormCreateDTO
	// The body is optional here; binding failures just mean an empty title.
	_ = ctx.ShouldBindJSON(&req)

	form, err := c.templateService.InstantiateTemplate(middleware.CurrentUser(ctx), templateID, req.Title)
	if err != nil {
		respondTemplateError(ctx, err, "InstantiateTemplate")
		return
	}
	ctx.JSON(http.StatusCreated, form)
}

func respondTemplateError(ctx *gin.Context, err error, operation string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Message:  "Request rejected",
			Failures: validationErr.Failures,
		})
	case errors.Is(err, service.ErrTemplateNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Template not found"})
	case errors.Is(err, service.ErrFormNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Form not found"})
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Operation not allowed"})
	default:
		log.Error().Err(err).Str("operation", operation).Msg("Template admin: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

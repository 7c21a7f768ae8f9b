package admin

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

type ResponseAdminController struct {
	responseService service.ResponseService
}

func NewResponseAdminController(responseService service.ResponseService) *ResponseAdminController {
	return &ResponseAdminController{responseService: responseService}
}

// ListResponses godoc
// @Summary (Owner) List responses to a form
// @Tags Admin - Responses
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param page query int false "Page number, 1-based"
// @Param per_page query int false "Page size, max 100"
// @Success 200 {object} dto.ResponsePageDTO
// @Failure 403 {object} dto.ErrorResponse "No read access to this form"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/responses [get]
func (c *ResponseAdminController) ListResponses(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(ctx.DefaultQuery("per_page", "20"))

	result, err := c.responseService.ListResponses(middleware.CurrentUser(ctx), formID, page, perPage)
	if err != nil {
		respondResponseError(ctx, err, "ListResponses")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetResponse godoc
// @Summary (Owner) Get one response with all its answers
// @Tags Admin - Responses
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param response_id path int true "Response ID"
// @Success 200 {object} dto.ResponseDetailDTO
// @Failure 403 {object} dto.ErrorResponse "No read access to this form"
// @Failure 404 {object} dto.ErrorResponse "Form or response not found"
// @Router /admin/forms/{form_id}/responses/{response_id} [get]
func (c *ResponseAdminController) GetResponse(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	responseID, ok := parsePathID(ctx, "response_id")
	if !ok {
		return
	}
	result, err := c.responseService.GetResponse(middleware.CurrentUser(ctx), formID, responseID)
	if err != nil {
		respondResponseError(ctx, err, "GetResponse")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// DeleteResponse godoc
// @Summary (Owner) Delete one response and its answers
// @Tags Admin - Responses
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param response_id path int true "Response ID"
// @Success 204 "Response deleted"
// @Failure 403 {object} dto.ErrorResponse "Only the owner or an admin can delete"
// @Failure 404 {object} dto.ErrorResponse "Form or response not found"
// @Router /admin/forms/{form_id}/responses/{response_id} [delete]
func (c *ResponseAdminController) DeleteResponse(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	responseID, ok := parsePathID(ctx, "response_id")
	if !ok {
		return
	}
	if err := c.responseService.DeleteResponse(middleware.CurrentUser(ctx), formID, responseID); err != nil {
		respondResponseError(ctx, err, "DeleteResponse")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ExportResponses godoc
// @Summary (Owner) Export all responses of a form
// @Description Export as CSV (one row per response, one column per question) or JSON via the format query parameter.
// @Tags Admin - Responses
// @Produce json
// @Produce text/csv
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Param format query string false "csv (default) or json"
// @Success 200 {string} string "Exported data"
// @Failure 400 {object} dto.ErrorResponse "Unknown export format"
// @Failure 403 {object} dto.ErrorResponse "No read access to this form"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/responses/export [get]
func (c *ResponseAdminController) ExportResponses(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	actor := middleware.CurrentUser(ctx)

	switch ctx.DefaultQuery("format", "csv") {
	case "csv":
		data, err := c.responseService.ExportCSV(actor, formID)
		if err != nil {
			respondResponseError(ctx, err, "ExportResponses")
			return
		}
		ctx.Header("Content-Disposition", "attachment; filename=responses.csv")
		ctx.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	case "json":
		data, err := c.responseService.ExportJSON(actor, formID)
		if err != nil {
			respondResponseError(ctx, err, "ExportResponses")
			return
		}
		ctx.Header("Content-Disposition", "attachment; filename=responses.json")
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", data)
	default:
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Unknown export format, use csv or json"})
	}
}

// GetSummary godoc
// @Summary (Owner) Aggregated per-question statistics for a form
// @Tags Admin - Responses
// @Produce json
// @Security BearerAuth
// @Param form_id path int true "Form ID"
// @Success 200 {object} dto.FormSummaryStatsDTO
// @Failure 403 {object} dto.ErrorResponse "No read access to this form"
// @Failure 404 {object} dto.ErrorResponse "Form not found"
// @Router /admin/forms/{form_id}/summary [get]
func (c *ResponseAdminController) GetSummary(ctx *gin.Context) {
	formID, ok := parsePathID(ctx, "form_id")
	if !ok {
		return
	}
	stats, err := c.responseService.Summary(middleware.CurrentUser(ctx), formID)
	if err != nil {
		respondResponseError(ctx, err, "GetSummary")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

func respondResponseError(ctx *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Form not found"})
	case errors.Is(err, service.ErrResponseNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Response not found"})
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Operation not allowed"})
	default:
		log.Error().Err(err).Str("operation", operation).Msg("Response admin: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

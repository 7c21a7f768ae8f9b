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

type LibraryController struct {
	libraryService service.LibraryService
}

func NewLibraryController(libraryService service.LibraryService) *LibraryController {
	return &LibraryController{libraryService: libraryService}
}

// ListQuestions godoc
// @Summary (Owner) List library questions
// @Description Public library questions plus the caller's own.
// @Tags Admin - Question Library
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.LibraryQuestionDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/library/questions [get]
func (c *LibraryController) ListQuestions(ctx *gin.Context) {
	questions, err := c.libraryService.ListQuestions(middleware.CurrentUser(ctx))
	if err != nil {
		respondLibraryError(ctx, err, "ListQuestions")
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// GetQuestion godoc
// @Summary (Owner) Get one library question
// @Tags Admin - Question Library
// @Produce json
// @Security BearerAuth
// @Param question_id path int true "Library question ID"
// @Success 200 {object} dto.LibraryQuestionDTO
// @Failure 404 {object} dto.ErrorResponse "Library question not found"
// @Router /admin/library/questions/{question_id} [get]
func (c *LibraryController) GetQuestion(ctx *gin.Context) {
	questionID, ok := parsePathID(ctx, "question_id")
	if !ok {
		return
	}
	question, err := c.libraryService.GetQuestion(middleware.CurrentUser(ctx), questionID)
	if err != nil {
		respondLibraryError(ctx, err, "GetQuestion")
		return
	}
	ctx.JSON(http.StatusOK, question)
}

// AddQuestion godoc
// @Summary (Owner) Add a question to the library
// @Description The question is validated like a form question: known type, options for choice types, decodable rules.
// @Tags Admin - Question Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question body dto.LibraryQuestionCreateDTO true "Question data"
// @Success 201 {object} dto.LibraryQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Role cannot create questions"
// @Failure 422 {object} dto.ValidationErrorResponse "Question definition is invalid"
// @Router /admin/library/questions [post]
func (c *LibraryController) AddQuestion(ctx *gin.Context) {
	var req dto.LibraryQuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	question, err := c.libraryService.AddQuestion(middleware.CurrentUser(ctx), req)
	if err != nil {
		respondLibraryError(ctx, err, "AddQuestion")
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// DeleteQuestion godoc
// @Summary (Owner) Delete a library question
// @Tags Admin - Question Library
// @Produce json
// @Security BearerAuth
// @Param question_id path int true "Library question ID"
// @Success 204 "Library question deleted"
// @Failure 403 {object} dto.ErrorResponse "Only the creator or an admin can delete"
// @Failure 404 {object} dto.ErrorResponse "Library question not found"
// @Router /admin/library/questions/{question_id} [delete]
func (c *LibraryController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := parsePathID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.libraryService.DeleteQuestion(middleware.CurrentUser(ctx), questionID); err != nil {
		respondLibraryError(ctx, err, "DeleteQuestion")
		return
	}
	ctx.Status(http.StatusNoContent)
}

func respondLibraryError(ctx *gin.Context, err error, operation string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Message:  "Request rejected",
			Failures: validationErr.Failures,
		})
	case errors.Is(err, service.ErrLibraryQuestionNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Library question not found"})
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Operation not allowed"})
	default:
		log.Error().Err(err).Str("operation", operation).Msg("Question library: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

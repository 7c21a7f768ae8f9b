package user

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lshigami/Bowerbirds/config"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/storage"
	"github.com/rs/zerolog/log"
)

type UploadController struct {
	store        storage.ObjectStore
	maxFileBytes int64
}

func NewUploadController(cfg *config.Config, store storage.ObjectStore) *UploadController {
	return &UploadController{store: store, maxFileBytes: cfg.Submission.MaxFileBytes}
}

// Upload godoc
// @Summary Upload a file for a file question
// @Description Store the file blob and return metadata the client echoes back as the value of a file answer.
// @Tags Public - Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} dto.UploadResultDTO
// @Failure 400 {object} dto.ErrorResponse "Missing or oversized file"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing file field"})
		return
	}
	if c.maxFileBytes > 0 && fileHeader.Size > c.maxFileBytes {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Message: fmt.Sprintf("File exceeds the %d byte limit", c.maxFileBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("Upload: Failed to open multipart file")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to read upload"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	if err := c.store.Put(ctx.Request.Context(), key, file, fileHeader.Size, contentType); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Upload: Object store error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to store upload"})
		return
	}

	ctx.JSON(http.StatusCreated, dto.UploadResultDTO{
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: contentType,
		StorageKey:  key,
	})
}

package controller

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/milanenterprises/cleancare-backend/internal/storage"
)

const multipartOverhead = 1 << 20

type UploadController struct {
	storage     storage.ImageStorage
	maxFileSize int64
	maxFiles    int
}

func NewUploadController(store storage.ImageStorage, maxFileSize int64, maxFiles int) *UploadController {
	return &UploadController{
		storage:     store,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
	}
}

type PresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder" binding:"omitempty,oneof=products categories"`
}

// readImages validates every file before any is stored
func (ctrl *UploadController) readImages(files []*multipart.FileHeader) ([]*storage.Image, error) {
	images := make([]*storage.Image, 0, len(files))
	for _, fh := range files {
		if fh.Size > ctrl.maxFileSize {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", storage.ErrFileTooLarge, fh.Filename, ctrl.maxFileSize)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		img, err := storage.ReadImage(f, fh.Filename, ctrl.maxFileSize)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (ctrl *UploadController) store(c *gin.Context, folder string, files []*multipart.FileHeader) {
	log := middleware.GetLoggerFromContext(c)

	images, err := ctrl.readImages(files)
	if err != nil {
		respondError(c, err, "upload file")
		return
	}

	stored := make([]*storage.StoredFile, 0, len(images))
	for _, img := range images {
		file, err := ctrl.storage.Save(c.Request.Context(), folder, img)
		if err != nil {
			log.Error("Failed to store uploaded file", err, map[string]interface{}{
				"folder":        folder,
				"original_name": img.OriginalName,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to store file")
			return
		}
		stored = append(stored, file)
	}

	log.Info("Files uploaded", map[string]interface{}{
		"folder": folder,
		"count":  len(stored),
	})
	apperrors.Created(c, "Files uploaded successfully", gin.H{"files": stored})
}

func (ctrl *UploadController) limitBody(c *gin.Context, files int) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(files)*ctrl.maxFileSize+multipartOverhead)
}

// UploadProductImages stores up to maxFiles images from the "images" field
// POST /api/v1/upload/product-images
func (ctrl *UploadController) UploadProductImages(c *gin.Context) {
	ctrl.limitBody(c, ctrl.maxFiles)

	form, err := c.MultipartForm()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Expected multipart form data within the size limit")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "No images provided")
		return
	}
	if len(files) > ctrl.maxFiles {
		apperrors.BadRequest(c, apperrors.UploadTooManyFiles, fmt.Sprintf("At most %d images per upload", ctrl.maxFiles))
		return
	}

	ctrl.store(c, storage.FolderProducts, files)
}

// POST /api/v1/upload/category-image
func (ctrl *UploadController) UploadCategoryImage(c *gin.Context) {
	ctrl.limitBody(c, 1)

	file, err := c.FormFile("image")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "No image provided")
		return
	}

	ctrl.store(c, storage.FolderCategories, []*multipart.FileHeader{file})
}

// DeleteFile removes a stored file by its public URL
// DELETE /api/v1/upload?url=
func (ctrl *UploadController) DeleteFile(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "url is required")
		return
	}

	key, err := ctrl.storage.KeyFromURL(url)
	if err != nil {
		respondError(c, err, "delete file")
		return
	}
	if err := ctrl.storage.Delete(c.Request.Context(), key); err != nil {
		respondError(c, err, "delete file")
		return
	}

	middleware.GetLoggerFromContext(c).Info("File deleted", map[string]interface{}{
		"key": key,
	})
	apperrors.OKWithMessage(c, "File deleted successfully", nil)
}

// GeneratePresignedURL issues a direct upload URL (S3 driver only)
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	presigner, ok := ctrl.storage.(storage.Presigner)
	if !ok {
		respondError(c, storage.ErrPresignUnavail, "generate presigned URL")
		return
	}

	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	folder := req.Folder
	if folder == "" {
		folder = storage.FolderProducts
	}

	resp, err := presigner.PresignUpload(c.Request.Context(), folder, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err, "generate presigned URL")
		return
	}
	apperrors.OK(c, resp)
}

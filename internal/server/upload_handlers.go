package server

import (
	"io"
	"mime/multipart"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadProjectFiles handles POST /api/upload/project
// @Summary Upload project images
// @Description Accepts up to 20 image files under the "files" field
// @Tags upload
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{success=bool,data=[]models.ImageMeta}
// @Failure 400 {object} models.ErrorResponse
// @Router /upload/project [post]
func (s *Server) UploadProjectFiles(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No files uploaded"))
	}
	if len(headers) > s.uploadService.MaxBatchFiles() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Too many files"))
	}

	files := make([]service.UploadFileInput, 0, len(headers))
	for _, h := range headers {
		in, readErr := readMultipartFile(h)
		if readErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded file"))
		}
		files = append(files, in)
	}

	results, err := s.uploadService.UploadBatch(c.Context(), service.FolderProjects, files)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, results)
}

// UploadAvatar handles POST /api/upload/avatar
// @Summary Upload an avatar image
// @Tags upload
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{success=bool,data=models.ImageMeta}
// @Failure 400 {object} models.ErrorResponse
// @Router /upload/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	return s.uploadSingle(c, service.FolderAvatars)
}

// UploadCover handles POST /api/upload/cover
// @Summary Upload a profile cover image
// @Tags upload
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{success=bool,data=models.ImageMeta}
// @Failure 400 {object} models.ErrorResponse
// @Router /upload/cover [post]
func (s *Server) UploadCover(c *fiber.Ctx) error {
	return s.uploadSingle(c, service.FolderCovers)
}

func (s *Server) uploadSingle(c *fiber.Ctx, folder string) error {
	header, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}
	in, err := readMultipartFile(header)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	meta, uploadErr := s.uploadService.UploadOne(c.Context(), folder, in)
	if uploadErr != nil {
		return respondError(c, uploadErr)
	}
	return respondData(c, fiber.StatusCreated, meta)
}

func readMultipartFile(header *multipart.FileHeader) (service.UploadFileInput, error) {
	f, err := header.Open()
	if err != nil {
		return service.UploadFileInput{}, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return service.UploadFileInput{}, err
	}
	return service.UploadFileInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

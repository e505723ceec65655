package media

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"course-media/internal/domain"
	"course-media/internal/http-server/handler/media/dto"
	media_uc "course-media/internal/usecase/media"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20
	// room for multipart boundaries and the other form fields
	formOverhead = 1 << 20

	UserIDHeader = "X-User-ID"
)

type MediaHandler struct {
	usecase       mediaUsecase
	validate      *validator.Validate
	maxUploadSize int64
	logger        *zlog.Zerolog
}

func NewMediaHandler(usecase mediaUsecase, maxUploadSize int64, logger *zlog.Zerolog) *MediaHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.DefaultMaxUploadSize
	}
	return &MediaHandler{
		usecase:       usecase,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form := dto.UploadForm{
		CourseID:   chi.URLParam(r, "courseId"),
		UploadedBy: strings.TrimSpace(r.Header.Get(UserIDHeader)),
	}
	if form.UploadedBy == "" {
		h.respondError(w, http.StatusUnauthorized, ErrMissingUser.Error(), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if isBodyTooLarge(err) {
			h.logger.Warn().Str("course_id", form.CourseID).Int64("limit", h.maxUploadSize).Msg("Upload body too large")
			h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	form.InstructorID = r.FormValue("instructorId")
	if err := h.validate.Struct(form); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid upload request", err)
		return
	}

	caption, err := parseCaption(r.FormValue("caption"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidCaption.Error(), nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, ErrMissingFile.Error(), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	img, err := h.usecase.Upload(ctx, media_uc.UploadCommand{
		CourseID:     form.CourseID,
		InstructorID: form.InstructorID,
		UploadedBy:   form.UploadedBy,
		FileName:     header.Filename,
		Data:         data,
		Caption:      caption,
	})
	if err != nil {
		h.handleError(w, err, "Failed to upload image")
		return
	}

	h.logger.Info().
		Str("image_id", img.ID).
		Str("course_id", img.CourseID).
		Str("filename", img.FileName).
		Msg("Image uploaded successfully")

	h.respondJSON(w, http.StatusCreated, img)
}

func (h *MediaHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	req := dto.ListRequest{CourseID: chi.URLParam(r, "courseId")}

	var err error
	query := r.URL.Query()
	if req.Limit, err = intParam(query.Get("limit")); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidPaginator.Error(), nil)
		return
	}
	if req.Offset, err = intParam(query.Get("offset")); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidPaginator.Error(), nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidPaginator.Error(), err)
		return
	}

	result, err := h.usecase.List(r.Context(), req.CourseID, req.Limit, req.Offset)
	if err != nil {
		h.handleError(w, err, "Failed to list images")
		return
	}

	images := result.Images
	if images == nil {
		images = []domain.CourseImage{}
	}

	h.respondJSON(w, http.StatusOK, dto.ListResponse{
		Images: images,
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

func (h *MediaHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	img, err := h.usecase.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to get image")
		return
	}

	h.respondJSON(w, http.StatusOK, img)
}

func (h *MediaHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	if err := h.usecase.Delete(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete image")
		return
	}

	h.logger.Info().Str("image_id", id).Msg("Image deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	status := h.usecase.StorageStatus()
	h.respondJSON(w, http.StatusOK, dto.StorageStatusResponse{
		Provider:   status.Provider,
		Configured: status.Configured,
	})
}

func (h *MediaHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

func (h *MediaHandler) handleError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, media_uc.ErrInvalidCommand), errors.Is(err, media_uc.ErrInvalidImage):
		h.logger.Warn().Err(err).Msg("Rejected request")
		h.respondError(w, http.StatusBadRequest, "Invalid image upload", err)
	case errors.Is(err, media_uc.ErrFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	case errors.Is(err, media_uc.ErrImageNotFound):
		h.respondError(w, http.StatusNotFound, "Image not found", nil)
	case errors.Is(err, media_uc.ErrBackendMismatch):
		h.respondError(w, http.StatusConflict, "Image is stored in another backend", err)
	case errors.Is(err, media_uc.ErrStorageNotConfigured):
		h.logger.Error().Msg("Storage backend is not configured")
		h.respondError(w, http.StatusServiceUnavailable, "Storage is not configured", nil)
	default:
		h.logger.Error().Err(err).Msg(message)
		h.respondError(w, http.StatusInternalServerError, message, err)
	}
}

// parseCaption accepts plain text or a JSON object of translations.
func parseCaption(raw string) (domain.LocalizedText, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.LocalizedText{}, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '"' {
		return domain.Plain(raw), nil
	}

	var caption domain.LocalizedText
	if err := json.Unmarshal([]byte(trimmed), &caption); err != nil {
		return domain.LocalizedText{}, err
	}
	return caption, nil
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// multipart parsing does not always wrap the reader error
	return strings.Contains(err.Error(), "request body too large")
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *MediaHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *MediaHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}

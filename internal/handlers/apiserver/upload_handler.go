package apiserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"social-go/internal/config"
	"social-go/internal/media"
)

const (
	defaultMaxMemory = 32 << 20 // multipart 表单在内存中的上限
)

// UploadHandler 封装了图片上传相关的 HTTP 处理器方法。
type UploadHandler struct {
	storageService media.StorageService
	cfg            config.StorageConfig
	log            *logrus.Logger
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(storageService media.StorageService, cfg config.StorageConfig, log *logrus.Logger) *UploadHandler {
	return &UploadHandler{storageService: storageService, cfg: cfg, log: log}
}

// UploadFile 处理 POST /upload，表单字段 "file" 必须是图片。
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("File too large, max %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONError(w, "Missing 'file' field", http.StatusBadRequest)
			return
		}
		writeJSONError(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		writeJSONError(w, "Only image uploads are allowed", http.StatusUnsupportedMediaType)
		return
	}
	if header.Size > maxUploadSize {
		writeJSONError(w, fmt.Sprintf("File too large, max %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		return
	}

	fileInfo, err := h.storageService.UploadFile(r.Context(), file, header.Size, header.Filename, mimeType)
	if err != nil {
		h.log.WithError(err).WithField("file", header.Filename).Error("storing upload failed")
		writeJSONError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	h.log.WithFields(logrus.Fields{"file": header.Filename, "size": header.Size, "type": mimeType}).Info("file uploaded")
	writeJSONResponse(w, http.StatusCreated, "Uploaded", fileInfo)
}

package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	formKeyMediaFile      = "file"
	maxMediaUploadBytes   = 50 << 20
	mediaObjectPrefix     = "uploads"
	mediaContentTypeImage = "image/"
	mediaContentTypeVideo = "video/"
	mediaSniffLength      = 512

	messageMediaUnavailable = "Armazenamento de mídia não configurado"
	messageMissingFile      = "Selecione um arquivo"
	messageUnsupportedMedia = "Envie uma imagem ou um vídeo"
	messageFileTooLarge     = "Arquivo muito grande"
	messageUploadFailed     = "Falha ao enviar arquivo"
)

// MediaUploader stores an uploaded object and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// MediaHandlers accept admin image and video uploads.
type MediaHandlers struct {
	logger   *zap.Logger
	uploader MediaUploader
	clock    func() time.Time
}

// NewMediaHandlers builds the upload handler. A nil uploader answers 503.
func NewMediaHandlers(logger *zap.Logger, uploader MediaUploader) *MediaHandlers {
	return &MediaHandlers{logger: logger, uploader: uploader, clock: time.Now}
}

// Upload stores the multipart "file" field and returns its public URL.
func (handlers *MediaHandlers) Upload(context *gin.Context) {
	if handlers.uploader == nil {
		context.JSON(http.StatusServiceUnavailable, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueMediaUnavailable, jsonKeyMessage: messageMediaUnavailable})
		return
	}
	context.Request.Body = http.MaxBytesReader(context.Writer, context.Request.Body, maxMediaUploadBytes+1<<20)
	fileHeader, formErr := context.FormFile(formKeyMediaFile)
	if formErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueMissingFile, jsonKeyMessage: messageMissingFile})
		return
	}
	if fileHeader.Size > maxMediaUploadBytes {
		context.JSON(http.StatusRequestEntityTooLarge, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueFileTooLarge, jsonKeyMessage: messageFileTooLarge})
		return
	}
	if !isMediaContentType(fileHeader.Header.Get("Content-Type")) {
		context.JSON(http.StatusUnsupportedMediaType, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUnsupportedMedia, jsonKeyMessage: messageUnsupportedMedia})
		return
	}

	file, openErr := fileHeader.Open()
	if openErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueMissingFile, jsonKeyMessage: messageMissingFile})
		return
	}
	defer file.Close()

	// The stored type comes from the file bytes, never from the client header.
	contentType, sniffErr := sniffContentType(file)
	if sniffErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueMissingFile, jsonKeyMessage: messageMissingFile})
		return
	}
	if !isMediaContentType(contentType) {
		handlers.logger.Warn(logEventUploadMedia, zap.String("declared_type", fileHeader.Header.Get("Content-Type")), zap.String("detected_type", contentType))
		context.JSON(http.StatusUnsupportedMediaType, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUnsupportedMedia, jsonKeyMessage: messageUnsupportedMedia})
		return
	}

	objectName := handlers.objectName(fileHeader.Filename)
	publicURL, uploadErr := handlers.uploader.Upload(context.Request.Context(), objectName, file, fileHeader.Size, contentType)
	if uploadErr != nil {
		handlers.logger.Error(logEventUploadMedia, zap.String("object", objectName), zap.Error(uploadErr))
		context.JSON(http.StatusBadGateway, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUploadFailed, jsonKeyMessage: messageUploadFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{
		jsonKeySuccess: true,
		jsonKeyData: gin.H{
			"url":          publicURL,
			"object":       objectName,
			"content_type": contentType,
			"size":         fileHeader.Size,
		},
	})
}

func isMediaContentType(contentType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(normalized, mediaContentTypeImage) || strings.HasPrefix(normalized, mediaContentTypeVideo)
}

func sniffContentType(file io.ReadSeeker) (string, error) {
	sniff := make([]byte, mediaSniffLength)
	readCount, readErr := io.ReadFull(file, sniff)
	if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) && !errors.Is(readErr, io.EOF) {
		return "", readErr
	}
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", seekErr
	}
	detected := http.DetectContentType(sniff[:readCount])
	if separator := strings.IndexByte(detected, ';'); separator >= 0 {
		detected = detected[:separator]
	}
	return detected, nil
}

func (handlers *MediaHandlers) objectName(filename string) string {
	extension := strings.ToLower(filepath.Ext(filename))
	now := handlers.clock().UTC()
	return path.Join(mediaObjectPrefix, now.Format("2006"), now.Format("01"), uuid.NewString()+extension)
}

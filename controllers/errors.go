package controllers

import (
	"errors"
	"net/http"

	"flaredrive/models"
	"flaredrive/services/drive"
	"flaredrive/services/upload"
	"flaredrive/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, drive.ErrInvalidKey), errors.Is(err, upload.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, upload.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, drive.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for err. Store failures are logged and
// reported with the generic message only.
func respondError(ctx *gin.Context, logger *logrus.Entry, err error, message string) {
	status := statusFor(err)
	_ = ctx.Error(err)

	if status == http.StatusInternalServerError {
		logger.WithError(err).Error(message)
		ctx.JSON(status, models.NewErrorResponse(message))
		return
	}

	logger.WithError(err).Debug(message)
	switch status {
	case http.StatusNotFound:
		ctx.JSON(status, models.NewErrorResponse("Not found."))
	default:
		ctx.JSON(status, models.NewErrorResponse(err.Error()))
	}
}

package handlers

import (
	"net/http"

	"flashsale-system/internal/apperror"
	"flashsale-system/internal/logger"
)

// writeServiceError maps service errors to HTTP responses. The API surface
// uses only 400, 404 and 500; conflicts come back as 400 with a message.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, internalMessage string) {
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case apperror.Is(err, apperror.KindValidation):
		writeErrorList(w, http.StatusBadRequest, err.Error(), apperror.Violations(err))
	case apperror.Is(err, apperror.KindConflict):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

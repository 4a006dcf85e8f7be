package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/handlers/schemas"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"go.uber.org/zap"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Warn("Error encoding response", zap.Error(err))
	}
}

func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, schemas.ErrorResponse{Detail: detail})
}

// WriteError answers with the status of a CustomError, or 500 otherwise.
func WriteError(w http.ResponseWriter, err error) {
	var customErr customerror.CustomError
	if errors.As(err, &customErr) {
		logger.Log.Warn(customErr.Error())
		WriteDetail(w, customErr.GetHTTPCode(), customErr.Error())
		return
	}
	logger.Log.Error("request failed", zap.Error(err))
	WriteDetail(w, http.StatusInternalServerError, "Internal server error")
}

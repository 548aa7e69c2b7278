package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

// writeError translates domain sentinels and AppError codes into HTTP
// statuses. Unknown errors are logged and reported as internal.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
}

func statusFor(err error) (int, string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeNotFound:
			return http.StatusNotFound, appErr.Code
		case apperrors.CodeInvalidInput, apperrors.CodeValidationError, apperrors.CodeConfigInvalid:
			return http.StatusBadRequest, appErr.Code
		case apperrors.CodeUnsupportedFormat:
			return http.StatusUnsupportedMediaType, appErr.Code
		case apperrors.CodeMappingError, apperrors.CodeAnalysisError:
			return http.StatusUnprocessableEntity, appErr.Code
		default:
			return http.StatusInternalServerError, appErr.Code
		}
	}

	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound, apperrors.CodeNotFound
	case core.IsUnknownDomainError(err):
		return http.StatusBadRequest, apperrors.CodeInvalidInput
	case errors.Is(err, core.ErrEmptyTable), errors.Is(err, core.ErrNoColumns):
		return http.StatusBadRequest, apperrors.CodeInvalidInput
	case errors.Is(err, core.ErrMissingRequiredFields),
		errors.Is(err, core.ErrInsufficientData),
		errors.Is(err, core.ErrDateConversion):
		return http.StatusUnprocessableEntity, apperrors.CodeAnalysisError
	}
	return http.StatusInternalServerError, apperrors.CodeInternalError
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperrors.InvalidInput("request body required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}

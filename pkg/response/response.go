package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
)

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ErrorResponse struct {
	Success   bool                   `json:"success"`
	Error     string                 `json:"error"`
	Code      string                 `json:"code,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

// Success sends a successful JSON response
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a created JSON response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Error sends an error JSON response
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	response := ErrorResponse{
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	}

	if err != nil {
		response.Error = err.Error()
		var be *apperrors.BusinessError
		if errors.As(err, &be) {
			response.Code = be.Code
			response.Details = be.Details
		}
	}

	writeError(w, statusCode, response)
}

// BadRequest sends a 400 bad request response
func BadRequest(w http.ResponseWriter, message string, err error) {
	Error(w, http.StatusBadRequest, message, err)
}

func writeError(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		zap.L().Error("encode error response", zap.Error(encodeErr))
	}
}

// StatusFor maps a business error code to its HTTP status.
func StatusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.ErrCodeInvalidRange:
		return http.StatusBadRequest
	case apperrors.ErrCodeSponsorshipNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeOverlappingPeriod,
		apperrors.ErrCodeNotInMutableState,
		apperrors.ErrCodeConcurrentModification,
		apperrors.ErrCodeDuplicateTransaction:
		return http.StatusConflict
	case apperrors.ErrCodeAmountMismatch,
		apperrors.ErrCodeNonPositiveAmount,
		apperrors.ErrCodeAmountPrecision,
		apperrors.ErrCodeRangeBeforeSponsorshipStart:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status its business code maps to. Internal errors
// keep only their code; the cause stays in the server log.
func FromError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status != http.StatusInternalServerError {
		message := "request failed"
		var be *apperrors.BusinessError
		if errors.As(err, &be) {
			message = be.Message
		}
		Error(w, status, message, err)
		return
	}

	writeError(w, status, ErrorResponse{
		Success:   false,
		Code:      apperrors.Code(err),
		Message:   "internal error",
		Timestamp: time.Now(),
	})
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response recorder to capture the status code
			recorder := &responseRecorder{ResponseWriter: w, statusCode: 200}

			next.ServeHTTP(recorder, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *responseRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

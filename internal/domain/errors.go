package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrCameraNotFound = &AppError{
		Code:       "CAMERA_NOT_FOUND",
		Message:    "Camera not found",
		StatusCode: 404,
	}

	ErrCameraExists = &AppError{
		Code:       "CAMERA_ALREADY_EXISTS",
		Message:    "Camera already registered with this name",
		StatusCode: 409,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Analysis session not found",
		StatusCode: 404,
	}

	ErrInvalidGeometry = &AppError{
		Code:       "INVALID_GEOMETRY",
		Message:    "Camera mounting geometry is invalid",
		StatusCode: 422,
	}

	ErrNoVideoSource = &AppError{
		Code:       "NO_VIDEO_SOURCE",
		Message:    "No video source configured for this camera",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// ErrInvalidImage covers corrupt or unsupported frame data. It is
	// recorded per frame and never aborts a session.
	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted frame",
		StatusCode: 422,
	}

	// ErrModelLoad is fatal: without a loaded model there is no degraded
	// mode, so it propagates to process startup.
	ErrModelLoad = &AppError{
		Code:       "MODEL_LOAD_FAILED",
		Message:    "Inference model could not be loaded",
		StatusCode: 500,
	}

	// ErrInference covers runtime failures during model execution. Treated
	// like ErrInvalidImage at the frame level: logged, frame marked
	// errored, session continues.
	ErrInference = &AppError{
		Code:       "INFERENCE_FAILED",
		Message:    "Model inference failed",
		StatusCode: 500,
	}
)

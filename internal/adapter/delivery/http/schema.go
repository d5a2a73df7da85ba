package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const statusError = "error"

// linkRequest represents the structure for a request to create or modify a link.
// Scheme normalization happens in the use case, so only presence is checked here.
type linkRequest struct {
	DestinationURL string `json:"destination_url" validate:"required,max=2048"`
}

// linkResponse represents the structure for a response containing link information.
type linkResponse struct {
	ID             string    `json:"id"`
	DestinationURL string    `json:"destination_url"`
	InternalURL    string    `json:"internal_url"`
	PublicAlias    string    `json:"public_alias"`
	EncodedImage   string    `json:"encoded_image"`
	Stats          linkStats `json:"stats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// linkStats represents the engagement statistics of a link.
type linkStats struct {
	ScanCount  int64      `json:"scan_count"`
	LastScanAt *time.Time `json:"last_scan_at"`
}

// toLinkResponse converts an entity.Link to a linkResponse.
func toLinkResponse(link *entity.Link) linkResponse {
	return linkResponse{
		ID:             link.ID,
		DestinationURL: link.DestinationURL,
		InternalURL:    link.InternalURL,
		PublicAlias:    link.PublicAlias,
		EncodedImage:   link.ImageDataURI(),
		Stats: linkStats{
			ScanCount:  link.ScanCount,
			LastScanAt: link.LastScanAt,
		},
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}
}

func toLinkResponses(links []*entity.Link) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(link))
	}
	return resp
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	invalidDestinationURLResponse = errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors: []validationError{
			{Field: "destination_url", Message: "invalid url"},
		},
	}

	unauthorizedResponse = errorResponse{
		Status:  statusError,
		Message: "unauthorized",
	}

	linkNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "link not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}

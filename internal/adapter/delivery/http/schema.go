package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/tinylink/internal/entity"
)

const healthVersion = "1.0"

// linkRequest represents the structure for a request to create a link.
type linkRequest struct {
	Target string `json:"target" validate:"required,url"`
	Code   string `json:"code,omitempty" validate:"omitempty,shortcode,notreserved"`
}

// linkResponse represents a link as exposed by the API. The store id is never serialised.
type linkResponse struct {
	Code        string     `json:"code"`
	Target      string     `json:"target"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"last_clicked"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toLinkResponse(link *entity.Link) linkResponse {
	return linkResponse{
		Code:        link.Code,
		Target:      link.Target,
		Clicks:      link.Clicks,
		LastClicked: link.LastClicked,
		CreatedAt:   link.CreatedAt,
	}
}

func toLinkListResponse(links []entity.Link) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toLinkResponse(&links[i]))
	}
	return resp
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured API error.
type errorResponse struct {
	Error  string            `json:"error"`
	Errors []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse   = errorResponse{Error: "empty request body"}
	invalidRequestBodyResponse = errorResponse{Error: "invalid request body"}
	invalidCodeResponse        = errorResponse{Error: "invalid code format"}
	linkNotFoundResponse       = errorResponse{Error: "not found"}
	codeExistsResponse         = errorResponse{Error: "code already exists"}
	serverErrorResponse        = errorResponse{Error: "server error"}
)

// Plain-text bodies of the public redirect endpoint.
const (
	redirectNotFoundBody    = "Not found"
	redirectServerErrorBody = "Server error"
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "must be a valid URL"
	case "shortcode":
		return "must match [A-Za-z0-9]{6,8}"
	case "notreserved":
		return "is reserved"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	errs := getValidationErrors(err)

	resp := errorResponse{
		Error:  "validation error",
		Errors: errs,
	}
	if len(errs) > 0 {
		resp.Error = errs[0].Field + " " + errs[0].Message
	}

	return resp
}

func invalidInputResponse(err error) errorResponse {
	switch {
	case errors.Is(err, entity.ErrInvalidTarget):
		return errorResponse{Error: "target must be a valid URL"}
	case errors.Is(err, entity.ErrInvalidCode):
		return invalidCodeResponse
	default:
		return errorResponse{Error: "invalid input"}
	}
}

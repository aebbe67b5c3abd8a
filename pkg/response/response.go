// Package response defines the JSON envelope used by every API response.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the common payload shape for both success and error responses.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "Invalid request. Please check the provided data.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

// SuccessResponse builds a success envelope with an optional single data
// payload.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// ValidationErrorResponse builds an error envelope carrying per-field issues
// extracted from a validator error.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "Some fields failed validation. Please check the provided data.",
	}

	for _, ve := range getValidationErrors(err) {
		resp.Details = append(resp.Details, ve)
	}

	return resp
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	var errs []validationError

	for _, ve := range validationErrs {
		issue := fmt.Sprintf("Invalid %s.", ve.Tag())

		switch ve.Tag() {
		case "required":
			issue = "This field is required."
		case "url":
			issue = "Invalid url."
		}

		errs = append(errs, validationError{
			Field: ve.Field(),
			Value: ve.Value(),
			Issue: issue,
		})
	}

	return errs
}

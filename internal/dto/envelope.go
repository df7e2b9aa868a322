package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// Envelope wraps every command and query result with the resolved scope and
// the request id that also appears on the audit trail.
type Envelope struct {
	RequestID string       `json:"requestID"`
	Scope     domain.Scope `json:"scope"`
	Data      any          `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      apperrors.Code `json:"code"`
	Detail    string         `json:"detail"`
	RequestID string         `json:"requestID,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// same tags gin uses for request binding
	v.SetTagName("binding")
	return v
}

// Validate runs the struct's binding rules and returns a VALIDATION error
// naming the failing fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return apperrors.NewValidationError(strings.Join(msgs, "; "))
	}
	return apperrors.Wrap(apperrors.CodeValidation, "invalid request", err)
}

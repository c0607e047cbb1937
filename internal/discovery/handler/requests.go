package handler

import (
	"strings"

	"worldfolio/internal/discovery"
	dErrors "worldfolio/pkg/domain-errors"
)

const maxTextLength = 100

// ModeRequest is the body of PUT /views/discovery/{id}/mode.
type ModeRequest struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`

	parsedMode discovery.Mode
}

// Validate implements httputil.Validatable.
func (r *ModeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Value) > maxTextLength {
		return dErrors.New(dErrors.CodeValidation, "value must be at most 100 characters")
	}
	mode, err := discovery.ParseMode(r.Mode)
	if err != nil {
		return err
	}
	r.parsedMode = mode
	return nil
}

// ParsedMode returns the mode resolved by Validate.
func (r *ModeRequest) ParsedMode() discovery.Mode {
	return r.parsedMode
}

// TextRequest is the body of the search box endpoints (input, submit).
type TextRequest struct {
	Text string `json:"text"`
}

func (r *TextRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Text) > maxTextLength {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 100 characters")
	}
	return nil
}

// SelectRequest is the body of POST /views/discovery/{id}/select.
type SelectRequest struct {
	Value string `json:"value"`
}

func (r *SelectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Value = strings.TrimSpace(r.Value)
	if r.Value == "" {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	if len(r.Value) > maxTextLength {
		return dErrors.New(dErrors.CodeValidation, "value must be at most 100 characters")
	}
	return nil
}

// ViewResponse wraps a view snapshot with its ID.
type ViewResponse struct {
	ID   string          `json:"id"`
	View discovery.State `json:"view"`
}

package handler

import (
	"strings"

	"worldfolio/internal/country"
	"worldfolio/internal/details"
	dErrors "worldfolio/pkg/domain-errors"
)

const maxQuestionLength = 500

// SubjectRequest is the body of POST /views/details and PUT /views/details/{id}/subject.
type SubjectRequest struct {
	Code string `json:"code"`
}

// Validate implements httputil.Validatable.
func (r *SubjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = country.NormalizeCode(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if !country.ValidCode(r.Code) {
		return dErrors.New(dErrors.CodeValidation, "code must be a 2 or 3 letter country code")
	}
	return nil
}

// ChatRequest is the body of POST /views/details/{id}/chat. Blank questions
// are accepted and leave the chat unchanged.
type ChatRequest struct {
	Question string `json:"question"`
}

func (r *ChatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(strings.TrimSpace(r.Question)) > maxQuestionLength {
		return dErrors.New(dErrors.CodeValidation, "question must be at most 500 characters")
	}
	return nil
}

// ViewResponse wraps a view snapshot with its ID.
type ViewResponse struct {
	ID   string        `json:"id"`
	View details.State `json:"view"`
}

type ChatResponse struct {
	ID   string            `json:"id"`
	Chat details.ChatState `json:"chat"`
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/todiane/djangify/auth"
	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/portfolio"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response body", "error", err)
	}
}

func respondSuccess(w http.ResponseWriter, statusCode int, data any, message string) {
	writeJSON(w, statusCode, envelope{Status: "success", Data: data, Message: message})
}

func respondFail(w http.ResponseWriter, statusCode int, data any, message string) {
	writeJSON(w, statusCode, envelope{Status: "error", Data: data, Message: message})
}

// respondError translates domain errors into the JSON error envelope.
// Internal errors get a generic message; the detail only goes to the log.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr      blog.ValidationError
		postNotFound       blog.PostNotFoundError
		categoryNotFound   blog.CategoryNotFoundError
		tagNotFound        blog.TagNotFoundError
		projectNotFound    portfolio.ProjectNotFoundError
		technologyNotFound portfolio.TechnologyNotFoundError
		imageNotFound      portfolio.ProjectImageNotFoundError
		commentNotFound    moderation.CommentNotFoundError
		userNotFound       auth.UserNotFoundError
		postExists         blog.PostAlreadyExistsError
		projectExists      portfolio.ProjectAlreadyExistsError
	)

	switch {
	case errors.As(err, &validationErr):
		respondFail(w, http.StatusBadRequest, map[string]string{validationErr.Field: validationErr.Detail}, validationErr.Error())
	case errors.As(err, &postNotFound):
		respondFail(w, http.StatusNotFound, nil, postNotFound.Error())
	case errors.As(err, &categoryNotFound):
		respondFail(w, http.StatusNotFound, nil, categoryNotFound.Error())
	case errors.As(err, &tagNotFound):
		respondFail(w, http.StatusNotFound, nil, tagNotFound.Error())
	case errors.As(err, &projectNotFound):
		respondFail(w, http.StatusNotFound, nil, projectNotFound.Error())
	case errors.As(err, &technologyNotFound):
		respondFail(w, http.StatusNotFound, nil, technologyNotFound.Error())
	case errors.As(err, &imageNotFound):
		respondFail(w, http.StatusNotFound, nil, imageNotFound.Error())
	case errors.As(err, &commentNotFound):
		respondFail(w, http.StatusNotFound, nil, commentNotFound.Error())
	case errors.As(err, &userNotFound):
		respondFail(w, http.StatusNotFound, nil, userNotFound.Error())
	case errors.As(err, &postExists):
		respondFail(w, http.StatusConflict, nil, postExists.Error())
	case errors.As(err, &projectExists):
		respondFail(w, http.StatusConflict, nil, projectExists.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondFail(w, http.StatusUnauthorized, nil, "invalid username or password")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondFail(w, http.StatusInternalServerError, nil, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
	if err != nil {
		return blog.ValidationError{Field: "body", Detail: fmt.Sprintf("invalid json: %v", err)}
	}

	return nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/saadbenchekroun/data-visualizer/internal/models"
	"github.com/saadbenchekroun/data-visualizer/internal/nlp"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
	"github.com/saadbenchekroun/data-visualizer/internal/state"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var parseErr *dataset.ParseError
	switch {
	case errors.Is(err, state.ErrDatasetNotFound),
		errors.Is(err, service.ErrUnknownTemplate),
		errors.Is(err, service.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, service.ErrIncompleteMapping),
		errors.Is(err, nlp.ErrInsufficientColumns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dataset.ErrEmptyFile),
		errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.As(err, &parseErr),
		errors.Is(err, service.ErrNotConnected),
		errors.Is(err, state.ErrUnnamedDataset):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "error", err)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

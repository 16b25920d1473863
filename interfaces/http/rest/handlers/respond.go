package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// intParam reads an integer query parameter, falling back to def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidationError(fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return v, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.NewValidationError(fmt.Sprintf("%s must be a boolean, got %q", name, raw))
	}
	return v, nil
}

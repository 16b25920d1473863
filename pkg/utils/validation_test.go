package utils

import (
	"testing"

	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchRequest struct {
	MinDegree int    `validate:"min=0,max=12"`
	MaxDegree int    `validate:"min=1,max=12,gtefield=MinDegree"`
	Mode      string `validate:"omitempty,oneof=strict exploratory"`
	Name      string `validate:"required,max=5"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     searchRequest
		wantErr string
	}{
		{"valid", searchRequest{MinDegree: 2, MaxDegree: 6, Name: "ok"}, ""},
		{"inverted", searchRequest{MinDegree: 5, MaxDegree: 3, Name: "ok"}, "max_degree must not be lower than min_degree"},
		{"bad mode", searchRequest{MaxDegree: 3, Mode: "wild", Name: "ok"}, "mode must be one of: strict exploratory"},
		{"missing name", searchRequest{MaxDegree: 3}, "name is required"},
		{"long name", searchRequest{MaxDegree: 3, Name: "toolong"}, "name must be at most 5 characters"},
		{"max too high", searchRequest{MaxDegree: 13, Name: "ok"}, "max_degree must be at most 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

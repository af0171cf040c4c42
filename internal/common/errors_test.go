package common

import (
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"problem not found", Errorf("grade: %w", ErrProblemNotFound), http.StatusNotFound},
		{"validation", Errorf("user_id is required: %w", ErrValidation), http.StatusBadRequest},
		{"bad request", Errorf("invalid request: %w", ErrBadRequest), http.StatusBadRequest},
		{"internal", Errorf("run code: %w", ErrInternalServer), http.StatusInternalServerError},
		{"store", Errorf("flush: %w", ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"pg connection", &pgconn.PgError{Code: "08006"}, http.StatusServiceUnavailable},
		{"other", Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusFromError(tc.err))
		})
	}
}

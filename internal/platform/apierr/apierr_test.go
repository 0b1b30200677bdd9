package apierr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
)

func TestFrom(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: fmt.Errorf("bad type: %w", apperr.ErrInvalidArgument), status: http.StatusBadRequest, code: "invalid_argument"},
		{err: fmt.Errorf("credential: %w", apperr.ErrNotFound), status: http.StatusNotFound, code: "not_found"},
		{err: apperr.ErrUnauthorized, status: http.StatusUnauthorized, code: "unauthorized"},
		{err: fmt.Errorf("boom"), status: http.StatusInternalServerError, code: "internal"},
		{err: New(http.StatusConflict, "conflict", nil), status: http.StatusConflict, code: "conflict"},
	}
	for _, tc := range cases {
		got := From(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("From(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
	if From(nil) != nil {
		t.Fatalf("From(nil): want nil")
	}
}

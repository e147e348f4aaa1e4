package apperr

import (
	"errors"
	"net/http"
	"testing"
)

var errSentinel = errors.New("search term is required")

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "message only", err: Validation("bad input"), want: "bad input"},
		{name: "with op", err: Validation("bad input").WithOp("scan.Search"), want: "scan.Search: bad input"},
		{name: "with cause", err: Unavailable("failed to list topics", errors.New("dial tcp: refused")), want: "failed to list topics: dial tcp: refused"},
		{name: "sentinel under its own text", err: Wrap(KindValidation, errSentinel.Error(), errSentinel), want: "search term is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrappedSentinelStaysReachable(t *testing.T) {
	err := Wrap(KindValidation, errSentinel.Error(), errSentinel)
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected sentinel in chain")
	}
	if !Is(err, KindValidation) {
		t.Fatalf("expected validation kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindForbidden, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := New(tt.kind, "x").HTTPStatus(); got != tt.want {
			t.Fatalf("kind %d: HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

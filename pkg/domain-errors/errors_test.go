package domainerrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "asset missing")
		if !HasCode(err, CodeNotFound) {
			t.Fatalf("expected CodeNotFound on %v", err)
		}
		if HasCode(err, CodeConflict) {
			t.Fatalf("did not expect CodeConflict on %v", err)
		}
	})

	t.Run("matches wrapped code", func(t *testing.T) {
		inner := New(CodeInvalidTransition, "approved is terminal")
		outer := Wrap(inner, CodeInternal, "review failed")
		if !HasCode(outer, CodeInvalidTransition) {
			t.Fatalf("expected inner code to be visible through wrap")
		}
		if !HasCode(outer, CodeInternal) {
			t.Fatalf("expected outer code to be visible")
		}
	})

	t.Run("uncoded error has no codes", func(t *testing.T) {
		if HasCode(errors.New("plain"), CodeInternal) {
			t.Fatalf("plain errors must not match any code")
		}
	})
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CodeInternal, "noop") != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestCodeOf(t *testing.T) {
	err := Wrap(New(CodeNotFound, "inner"), CodeBadGateway, "outer")
	if got := CodeOf(err); got != CodeBadGateway {
		t.Fatalf("expected outermost code, got %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("uncoded error should map to internal, got %s", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:             http.StatusBadRequest,
		CodeInvalidDecision:        http.StatusBadRequest,
		CodeMissingRejectionReason: http.StatusBadRequest,
		CodeNotFound:               http.StatusNotFound,
		CodeConflict:               http.StatusConflict,
		CodeInvalidTransition:      http.StatusConflict,
		CodeWrongStage:             http.StatusConflict,
		CodeBadGateway:             http.StatusBadGateway,
		CodeTimeout:                http.StatusGatewayTimeout,
		CodeUnavailable:            http.StatusServiceUnavailable,
		CodeInternal:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("code %s: expected %d, got %d", code, want, got)
		}
	}
}

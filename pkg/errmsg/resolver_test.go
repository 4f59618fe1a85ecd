package errmsg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type fakeResponse struct {
	status  int
	message string
}

func (f *fakeResponse) Error() string       { return fmt.Sprintf("status %d", f.status) }
func (f *fakeResponse) StatusCode() int     { return f.status }
func (f *fakeResponse) BodyMessage() string { return f.message }

func TestResolve_NetworkFailure(t *testing.T) {
	errs := []error{
		errors.New("dial tcp: connection refused"),
		context.DeadlineExceeded,
		fmt.Errorf("list products: %w", errors.New("EOF")),
	}
	for _, err := range errs {
		if got := Resolve(err, English, ""); got != Message(English, KeyNetwork) {
			t.Errorf("Expected network message for %v, got %q", err, got)
		}
		if got := Resolve(err, Nepali, "custom"); got != Message(Nepali, KeyNetwork) {
			t.Errorf("Expected Nepali network message for %v, got %q", err, got)
		}
	}
}

func TestResolve_StatusMapping(t *testing.T) {
	statuses := map[int]string{
		http.StatusBadRequest:          KeyBadRequest,
		http.StatusUnauthorized:        KeyUnauthorized,
		http.StatusForbidden:           KeyForbidden,
		http.StatusNotFound:            KeyNotFound,
		http.StatusInternalServerError: KeyServerError,
	}

	for _, lang := range []Language{English, Nepali} {
		for status, key := range statuses {
			t.Run(fmt.Sprintf("%s_%d", lang, status), func(t *testing.T) {
				err := &fakeResponse{status: status}
				want := Message(lang, key)
				if want == "" {
					t.Fatalf("Missing message for %s/%s", lang, key)
				}
				if got := Resolve(err, lang, "fallback"); got != want {
					t.Errorf("Expected %q, got %q", want, got)
				}
			})
		}
	}
}

func TestResolve_UnmappedStatusUsesFallback(t *testing.T) {
	err := &fakeResponse{status: http.StatusTeapot}

	if got := Resolve(err, English, "Could not load prices."); got != "Could not load prices." {
		t.Errorf("Expected caller fallback, got %q", got)
	}
	if got := Resolve(err, Nepali, ""); got != Message(Nepali, KeyGeneric) {
		t.Errorf("Expected generic Nepali fallback, got %q", got)
	}
}

func TestResolve_BodyMessageWins(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 418, 500, 503} {
		err := fmt.Errorf("wrapped: %w", &fakeResponse{status: status, message: "Stock exhausted for this seed"})
		if got := Resolve(err, Nepali, "fallback"); got != "Stock exhausted for this seed" {
			t.Errorf("Status %d: expected backend message, got %q", status, got)
		}
	}
}

func TestResolve_BlankBodyMessageIgnored(t *testing.T) {
	err := &fakeResponse{status: http.StatusNotFound, message: "   "}
	if got := Resolve(err, English, ""); got != Message(English, KeyNotFound) {
		t.Errorf("Expected not-found message, got %q", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	inputs := []error{
		nil,
		errors.New("offline"),
		&fakeResponse{status: 401},
		&fakeResponse{status: 418},
		&fakeResponse{status: 400, message: "Invalid phone number"},
	}
	for _, err := range inputs {
		first := Resolve(err, Nepali, "fb")
		for i := 0; i < 3; i++ {
			if got := Resolve(err, Nepali, "fb"); got != first {
				t.Fatalf("Expected stable result %q for %v, got %q", first, err, got)
			}
		}
	}
}

func TestResolve_NilError(t *testing.T) {
	if got := Resolve(nil, English, "nothing to report"); got != "nothing to report" {
		t.Errorf("Expected fallback for nil error, got %q", got)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"ne":             Nepali,
		"NE":             Nepali,
		"ne-NP":          Nepali,
		"np":             Nepali,
		"ne-NP,en;q=0.8": Nepali,
		"en":             English,
		"en-US,ne;q=0.5": English,
		"":               English,
		"fr":             English,
	}
	for in, want := range tests {
		if got := ParseLanguage(in); got != want {
			t.Errorf("ParseLanguage(%q): expected %s, got %s", in, want, got)
		}
	}
}

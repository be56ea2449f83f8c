package fetchbin

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := newErr(Transport, cause, "fetching %s", "asset")
	if !errors.Is(e, cause) {
		t.Errorf("errors.Is should see through to the wrapped cause")
	}
}

func TestErrorMessageIncludesKind(t *testing.T) {
	e := newErr(NoMatch, nil, "no candidates survived")
	if e.Error() == "" {
		t.Fatal("Error() should not be empty")
	}
	var asErr *Error
	if !errors.As(e, &asErr) {
		t.Fatal("errors.As should match *Error")
	}
	if asErr.Kind != NoMatch {
		t.Errorf("Kind = %q, want %q", asErr.Kind, NoMatch)
	}
}

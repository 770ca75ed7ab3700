package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("build query: %w", NewError(StageVector, "embedding_vector", ErrDimensionMismatch))

	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch in chain, got %v", err)
	}

	var de *Error
	if !errors.As(err, &de) {
		t.Fatal("expected *Error in chain")
	}
	if de.Stage != StageVector {
		t.Errorf("stage = %q, want %q", de.Stage, StageVector)
	}
	if de.Field != "embedding_vector" {
		t.Errorf("field = %q, want embedding_vector", de.Field)
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with field",
			err:  NewError(StageHighlight, "description.title.raw", ErrUnresolvableFieldPath),
			want: "highlight description.title.raw: unresolvable field path",
		},
		{
			name: "without field",
			err:  NewError(StageNormalize, "", ErrMalformedInput),
			want: "normalize: malformed input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

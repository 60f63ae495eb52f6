package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestParseConfirmLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    ConfirmLevel
		wantErr bool
	}{
		{in: "force", want: ConfirmForce},
		{in: "SLN", want: ConfirmSln},
		{in: "proj", want: ConfirmProj},
		{in: "Dir", want: ConfirmDir},
		{in: "file", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConfirmLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.String() != strings.ToLower(tt.in) {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestConfirmFunc(t *testing.T) {
	var got ConfirmKind
	var c Confirmer = ConfirmFunc(func(kind ConfirmKind, _ string) bool {
		got = kind
		return true
	})
	if !c.Confirm(ConfirmContainer, "/repo") || got != ConfirmContainer {
		t.Error("ConfirmFunc should forward the call")
	}
}

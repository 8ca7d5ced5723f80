package app

import (
	"errors"
	"testing"
)

func TestNewOperation(t *testing.T) {
	op := NewOperation("Purchase", "content-1")

	if op.Operation != "Purchase" || op.Parameters != "content-1" {
		t.Errorf("op = %+v, want Purchase content-1", op)
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
	if op.Persisted() {
		t.Error("Persisted() = true for a new operation")
	}
}

func TestOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Operation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_Record(t *testing.T) {
	op := NewOperation("Tip", "")
	if err := op.Record(nil); err != nil || op.Status != "success" {
		t.Errorf("Record(nil) = %v, status %q; want nil, success", err, op.Status)
	}

	boom := errors.New("boom")
	if err := op.Record(boom); !errors.Is(err, boom) {
		t.Errorf("Record() = %v, want the recorded error", err)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want %q", op.Status, "error")
	}
}

package ctxutil

import (
	"context"
	"testing"
)

func TestLogFieldsSkipsEmptyValues(t *testing.T) {
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("bare context should have no fields, got %v", got)
	}
	ctx := WithTrace(context.Background(), Trace{RequestID: "req-1"})
	ctx = WithRequestData(ctx, &RequestData{UserID: "1700000000001", Role: "aluno"})

	got := LogFields(ctx)
	want := []any{"request_id", "req-1", "user_id", "1700000000001"}
	if len(got) != len(want) {
		t.Fatalf("fields: want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields: want %v got %v", want, got)
		}
	}
}

func TestTraceFromNilContext(t *testing.T) {
	if _, ok := TraceFrom(nil); ok {
		t.Fatalf("nil context must not carry a trace")
	}
}

package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Role: "student"})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id || rd.Role != "student" {
		t.Fatalf("GetRequestData: unexpected %+v", rd)
	}
	if GetRequestData(context.Background()) != nil {
		t.Fatalf("expected nil request data on bare context")
	}
}

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("GetTraceData: unexpected %+v", td)
	}
}

func TestLogFields(t *testing.T) {
	if LogFields(context.Background()) != nil {
		t.Fatalf("expected no fields without trace data")
	}
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "r"})
	got := LogFields(ctx)
	if len(got) != 2 || got[0] != "request_id" || got[1] != "r" {
		t.Fatalf("LogFields: unexpected %v", got)
	}
}

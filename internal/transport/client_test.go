package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

func TestSendPostsPayloadWithKey(t *testing.T) {
	var gotKey string
	var gotPayload model.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL, "secret", 5*time.Second)
	payload := model.Payload{
		GatewayID: "gw-test",
		Telemetry: &model.TrafficSummary{GatewayID: "gw-test", Timestamp: "2026-08-26T12:00:00Z", UniqueDevices: 3},
	}
	if err := sender.Send(context.Background(), payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPayload.GatewayID != "gw-test" || gotPayload.Telemetry == nil || gotPayload.Telemetry.UniqueDevices != 3 {
		t.Fatalf("payload mismatch: %+v", gotPayload)
	}
	if gotPayload.AssetTracking != nil {
		t.Fatalf("omitted section must not appear on the wire")
	}
}

func TestSendNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL, "secret", 5*time.Second)
	if err := sender.Send(context.Background(), model.Payload{GatewayID: "gw-test"}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestSendConnectionRefused(t *testing.T) {
	sender := NewHTTPSender("http://127.0.0.1:1", "secret", time.Second)
	if err := sender.Send(context.Background(), model.Payload{GatewayID: "gw-test"}); err == nil {
		t.Fatalf("expected connection error")
	}
}

package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transcriber/internal/config"
	"transcriber/internal/notifications"
)

func TestNotifySkipsWithoutWebhookURL(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobFinished(context.Background(), notifications.Outcome{JobID: "j"}); err != nil {
		t.Fatalf("expected nil without webhook url, got %v", err)
	}
}

func TestNotifyPostsPayloads(t *testing.T) {
	tests := []struct {
		name        string
		outcome     notifications.Outcome
		wantCode    int
		wantMessage string
		wantResp    string
	}{
		{
			name: "completed",
			outcome: notifications.Outcome{
				JobID:    "job-1",
				ClientID: "client-7",
				Result:   json.RawMessage(`{"text":"hello world"}`),
				RunTime:  1500 * time.Millisecond,
			},
			wantCode:    200,
			wantMessage: "success",
			wantResp:    `{"text":"hello world"}`,
		},
		{
			name: "failed",
			outcome: notifications.Outcome{
				JobID: "job-2",
				Err:   errors.New("fetch error: fetching: download: status 404"),
			},
			wantCode:    500,
			wantMessage: "fetch error: fetching: download: status 404",
			wantResp:    "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got notifications.Payload
			var contentType string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				contentType = r.Header.Get("Content-Type")
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode payload: %v", err)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			outcome := tt.outcome
			outcome.WebhookURL = server.URL
			svc := notifications.NewServiceWithClient(server.Client())
			if err := svc.NotifyJobFinished(context.Background(), outcome); err != nil {
				t.Fatalf("NotifyJobFinished: %v", err)
			}

			if contentType != "application/json" {
				t.Fatalf("content type = %q", contentType)
			}
			if got.Endpoint != notifications.Endpoint || got.JobID != outcome.JobID || got.ID != outcome.ClientID {
				t.Fatalf("unexpected identity fields: %+v", got)
			}
			if got.Code != tt.wantCode || got.Message != tt.wantMessage {
				t.Fatalf("code/message = %d %q", got.Code, got.Message)
			}
			if string(got.Response) != tt.wantResp {
				t.Fatalf("response = %s, want %s", got.Response, tt.wantResp)
			}
		})
	}
}

func TestNotifyReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := notifications.NewServiceWithClient(server.Client())
	err := svc.NotifyJobFinished(context.Background(), notifications.Outcome{JobID: "j", WebhookURL: server.URL})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}

func TestBuildPayloadRunTime(t *testing.T) {
	payload := notifications.BuildPayload(notifications.Outcome{JobID: "j", RunTime: 2 * time.Second})
	if payload.RunTime != 2 || payload.Code != 200 || string(payload.Response) != "null" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
)

func TestCreateSubscription(t *testing.T) {
	expiry := time.Now().Add(70 * time.Hour).UTC().Truncate(time.Second)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if req.ClientState == "" {
			t.Fatal("clientState missing from create payload")
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Subscription{
			ID:                 "sub-123",
			Resource:           req.Resource,
			ChangeType:         req.ChangeType,
			ExpirationDateTime: expiry,
		})
	}))
	defer ts.Close()

	client := NewClientWithHTTP(ts.URL, nil)
	sub, err := client.CreateSubscription(context.Background(), SubscriptionRequest{
		Resource:           "communications/callRecords",
		ChangeType:         "created,updated",
		NotificationURL:    "https://example.com/v1/webhooks/graph",
		ClientState:        "secret",
		ExpirationDateTime: expiry,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sub.ID != "sub-123" {
		t.Fatalf("unexpected subscription id %s", sub.ID)
	}
	if !sub.ExpirationDateTime.Equal(expiry) {
		t.Fatalf("unexpected expiry %v", sub.ExpirationDateTime)
	}
}

func TestListSubscriptionsFollowsNextLink(t *testing.T) {
	var base string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.RawQuery {
		case "":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value":           []Subscription{{ID: "sub-1"}},
				"@odata.nextLink": base + "/subscriptions?$skiptoken=abc",
			})
		case "$skiptoken=abc":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []Subscription{{ID: "sub-2"}},
			})
		default:
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
	}))
	defer ts.Close()
	base = ts.URL

	client := NewClientWithHTTP(ts.URL, nil)
	subs, err := client.ListSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "sub-1" || subs[1].ID != "sub-2" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   apperrors.ErrorCode
	}{
		{"throttled", http.StatusTooManyRequests, apperrors.ErrorCode_UPSTREAM_TRANSIENT},
		{"server error", http.StatusBadGateway, apperrors.ErrorCode_UPSTREAM_TRANSIENT},
		{"forbidden", http.StatusForbidden, apperrors.ErrorCode_UPSTREAM_TERMINAL},
		{"not found", http.StatusNotFound, apperrors.ErrorCode_UPSTREAM_TERMINAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{"code": "SomeCode", "message": "nope"},
				})
			}))
			defer ts.Close()

			client := NewClientWithHTTP(ts.URL, nil)
			_, err := client.GetCallRecord(context.Background(), "cr-1")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.CodeOf(err); got != tt.want {
				t.Fatalf("status %d classified as %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestListTranscriptsNotFoundIsNotReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Graph answers 404 on the transcripts route while the meeting's
		// resources are still materializing after the call.
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "NotFound", "message": "meeting not found"},
		})
	}))
	defer ts.Close()

	client := NewClientWithHTTP(ts.URL, nil)
	_, err := client.ListTranscripts(context.Background(), "user-1", "meeting-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperrors.CodeOf(err); got != apperrors.ErrorCode_TRANSCRIPT_NOT_READY {
		t.Fatalf("404 on transcripts classified as %s, want %s", got, apperrors.ErrorCode_TRANSCRIPT_NOT_READY)
	}
	if !apperrors.IsTransient(err) {
		t.Fatal("not-ready must be retryable")
	}
}

func TestGetTranscriptContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$format") != "text/vtt" {
			t.Fatalf("expected vtt format, got query %q", r.URL.RawQuery)
		}
		w.Write([]byte("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhello"))
	}))
	defer ts.Close()

	client := NewClientWithHTTP(ts.URL, nil)
	content, err := client.GetTranscriptContent(context.Background(), "user-1", "meeting-1", "tr-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if content == "" || content[:6] != "WEBVTT" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCallRecordOrganizerResolution(t *testing.T) {
	cr := CallRecord{OrganizerIDSet: &IDSet{ID: "v2-id"}, Organizer: &Identity{User: &IdentityDetail{ID: "v1-id"}}}
	if cr.OrganizerUserID() != "v2-id" {
		t.Fatalf("organizer_v2 should win, got %s", cr.OrganizerUserID())
	}

	cr = CallRecord{Organizer: &Identity{User: &IdentityDetail{ID: "v1-id"}}}
	if cr.OrganizerUserID() != "v1-id" {
		t.Fatalf("fallback to organizer.user failed, got %s", cr.OrganizerUserID())
	}

	cr = CallRecord{}
	if cr.OrganizerUserID() != "" {
		t.Fatal("empty call record should resolve to empty organizer")
	}
}

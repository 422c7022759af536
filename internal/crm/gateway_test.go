package crm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/domain"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGateway(config.CRMConfig{WebhookURL: server.URL, TimeoutSeconds: 2}, zap.NewNop())
}

func TestCallPostsMethodPath(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": 555})
	})

	resp, err := gateway.Call(context.Background(), MethodLeadAdd, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotPath != "/crm.lead.add" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) != `{"k":"v"}` {
		t.Fatalf("body = %s", gotBody)
	}

	id, ok := EntityID(resp)
	if !ok || id != 555 {
		t.Fatalf("entity id = %d ok=%v, want 555", id, ok)
	}
}

func TestCallSurfacesRemoteErrorPayload(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "QUERY_LIMIT_EXCEEDED",
			"error_description": "too many requests",
		})
	})

	_, err := gateway.Call(context.Background(), MethodLeadUpdate, nil)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remote.Method != MethodLeadUpdate {
		t.Fatalf("method = %q", remote.Method)
	}
	if remote.Payload["error"] != "QUERY_LIMIT_EXCEEDED" {
		t.Fatalf("payload = %+v", remote.Payload)
	}
}

func TestCallRejectsNon2xx(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := gateway.Call(context.Background(), MethodLeadAdd, nil)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v, want status 502 failure", err)
	}
}

func TestCallRejectsUndecodableBody(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	if _, err := gateway.Call(context.Background(), MethodLeadAdd, nil); err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestDisabledGateway(t *testing.T) {
	gateway := NewGateway(config.CRMConfig{WebhookURL: "  "}, zap.NewNop())
	_, err := gateway.Call(context.Background(), MethodLeadAdd, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestEntityID(t *testing.T) {
	cases := []struct {
		name string
		resp Response
		want int64
		ok   bool
	}{
		{"float", Response{"result": float64(42)}, 42, true},
		{"json number", Response{"result": json.Number("42")}, 42, true},
		{"missing", Response{}, 0, false},
		{"non numeric", Response{"result": "42"}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := EntityID(tc.resp)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("EntityID(%v) = %d, %v", tc.resp, got, ok)
			}
		})
	}
}

func TestNewLeadPayload(t *testing.T) {
	ticket := &domain.Ticket{
		ID:          7,
		Title:       "VPN is down",
		Description: "cannot connect since morning",
		Criticality: domain.CriticalityHigh,
		Tag:         "network",
		Department:  "IT",
	}
	payload := NewLeadPayload(ticket, "+79990001122")

	if payload.Fields.Title != "[Support #7] VPN is down" {
		t.Fatalf("title = %q", payload.Fields.Title)
	}
	if payload.Fields.Name != "Support request" {
		t.Fatalf("name = %q", payload.Fields.Name)
	}
	if payload.Fields.SourceID != "WEB" {
		t.Fatalf("source id = %q", payload.Fields.SourceID)
	}
	if len(payload.Fields.Phone) != 1 ||
		payload.Fields.Phone[0].Value != "+79990001122" ||
		payload.Fields.Phone[0].ValueType != "WORK" {
		t.Fatalf("phone = %+v", payload.Fields.Phone)
	}
	for _, fragment := range []string{"Local Ticket ID: 7", "Criticality: HIGH", "Tag: network", "cannot connect"} {
		if !strings.Contains(payload.Fields.Comments, fragment) {
			t.Fatalf("comments %q missing %q", payload.Fields.Comments, fragment)
		}
	}
}

func TestNewTimelineCommentPayload(t *testing.T) {
	payload := NewTimelineCommentPayload(555, "lead", "+79990001122", "any update?")
	if payload.Fields.EntityID != 555 {
		t.Fatalf("entity id = %d", payload.Fields.EntityID)
	}
	if payload.Fields.EntityType != "LEAD" {
		t.Fatalf("entity type = %q, want uppercased LEAD", payload.Fields.EntityType)
	}
	if payload.Fields.Comment != "[+79990001122] any update?" {
		t.Fatalf("comment = %q", payload.Fields.Comment)
	}

	defaulted := NewTimelineCommentPayload(1, "", "a", "b")
	if defaulted.Fields.EntityType != EntityTypeLead {
		t.Fatalf("entity type = %q, want LEAD default", defaulted.Fields.EntityType)
	}
}

func TestNewStatusPayload(t *testing.T) {
	payload := NewStatusPayload(555, domain.TicketStatusResolved)
	if payload.ID != 555 {
		t.Fatalf("id = %d", payload.ID)
	}
	if payload.Fields.StatusDescription != "RESOLVED" {
		t.Fatalf("status description = %q", payload.Fields.StatusDescription)
	}
}

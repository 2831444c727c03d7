package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "AC123", "token")
}

func TestListConferences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Conferences.json" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("Status"); got != StatusInProgress {
			t.Errorf("status filter: %q", got)
		}
		if u, _, ok := r.BasicAuth(); !ok || u != "AC123" {
			t.Errorf("basic auth missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conferences":[{"sid":"CF9","friendly_name":"AssistantRoom","status":"in-progress"}]}`))
	})

	confs, err := c.ListConferences(context.Background(), "AssistantRoom", StatusInProgress)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(confs) != 1 || confs[0].SID != "CF9" {
		t.Fatalf("got %+v", confs)
	}
}

func TestAnnounceConferencePostsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Conferences/CF9.json" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("AnnounceUrl"); got != "https://x/audio/1" {
			t.Errorf("AnnounceUrl: %q", got)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	if err := c.AnnounceConference(context.Background(), "CF9", "https://x/audio/1"); err != nil {
		t.Fatalf("announce: %v", err)
	}
}

func TestUpdateCallTwiMLErrorSurface(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 20404}`, http.StatusNotFound)
	})

	err := c.UpdateCallTwiML(context.Background(), "CA1", "<Response/>")
	if err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("http://x", "", "").Configured() {
		t.Fatal("empty credentials must report unconfigured")
	}
	if !NewClient("http://x", "AC1", "tok").Configured() {
		t.Fatal("credentials present must report configured")
	}
}

package clinics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

func TestNew_RequiresKeyAndURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://x"}); err == nil {
		t.Fatalf("expected error for missing API key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
}

func TestFindNearest_SortsAndAuthenticates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("zip") != "63101" || q.Get("distance") != "60" || q.Get("per_page") != "5" {
			t.Errorf("unexpected query: %v", q)
		}
		// Deliberately out of order: the client must sort ascending.
		json.NewEncoder(w).Encode(map[string]any{
			"clinics": []domain.Clinic{
				{Name: "Far", MilesFromQueryLocation: 12.4},
				{Name: "Near", MilesFromQueryLocation: 1.1},
				{Name: "Mid", MilesFromQueryLocation: 5.0},
			},
		})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := c.FindNearest(context.Background(), "63101")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Near" || got[1].Name != "Mid" || got[2].Name != "Far" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestFindNearest_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.FindNearest(context.Background(), "63101"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFindNearest_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.FindNearest(context.Background(), "63101"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFindNearest_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "k"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.FindNearest(ctx, "63101"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

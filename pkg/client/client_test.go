package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vexscan/vex/pkg/domain"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["email"] != "a@b" || req["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid email or password"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"access_token":  "A1",
			"refresh_token": "R1",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	pair, err := c.Login(context.Background(), "a@b", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if pair.AccessToken != "A1" || pair.RefreshToken != "R1" {
		t.Errorf("pair = %+v, want {A1 R1}", pair)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid email or password"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Login(context.Background(), "a@b", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if !strings.Contains(err.Error(), "Invalid email or password") {
		t.Errorf("error = %q, want server message surfaced verbatim", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "User already exists"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Register(context.Background(), "bob", "a@b", "password1")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Errorf("IsStatus(err, 400) = false, err = %v", err)
	}
	if IsCredentialInvalid(err) {
		t.Error("a 400 rejection must not be treated as a credential failure")
	}
}

func TestRefresh_Rotates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/refresh" {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req["refresh_token"] != "R1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid refresh token"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"access_token":  "A2",
			"refresh_token": "R2",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	pair, err := c.Refresh(context.Background(), "R1")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if pair.AccessToken != "A2" || pair.RefreshToken != "R2" {
		t.Errorf("pair = %+v, want {A2 R2}", pair)
	}

	if _, err := c.Refresh(context.Background(), "R1"); !IsCredentialInvalid(err) {
		t.Errorf("re-using a rotated token should be a credential failure, got %v", err)
	}
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "not authenticated"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success": true,
			"user":    domain.User{ID: 1, Username: "a", Email: "a@b"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	user, err := c.Me(context.Background(), "A1")
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if user.ID != 1 || user.Username != "a" {
		t.Errorf("user = %+v, want {1 a a@b}", user)
	}

	_, err = c.Me(context.Background(), "stale")
	if !IsCredentialInvalid(err) {
		t.Errorf("stale token should be a credential failure, got %v", err)
	}
}

func TestUserStats_WrappedAndFlat(t *testing.T) {
	wrapped := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/7/stats" {
			http.NotFound(w, r)
			return
		}
		stats := domain.ScanStats{TotalScans: 12, Safe: 9, Suspicious: 2, Malicious: 1}
		if wrapped {
			json.NewEncoder(w).Encode(map[string]any{"stats": stats}) //nolint:errcheck
		} else {
			json.NewEncoder(w).Encode(stats) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	for _, shape := range []string{"wrapped", "flat"} {
		stats, err := c.UserStats(context.Background(), "A1", 7)
		if err != nil {
			t.Fatalf("UserStats() %s error: %v", shape, err)
		}
		if stats.TotalScans != 12 || stats.Malicious != 1 {
			t.Errorf("%s stats = %+v, want {12 9 2 1}", shape, stats)
		}
		wrapped = false
	}
}

func TestUserHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"history": []domain.ScanRecord{
				{Filename: "a.exe", Status: "malicious", Threats: 3},
				{Filename: "b.pdf"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	hist, err := c.UserHistory(context.Background(), "A1", 7)
	if err != nil {
		t.Fatalf("UserHistory() error: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d records, want 2", len(hist))
	}
	if hist[0].Filename != "a.exe" || hist[0].Threats != 3 {
		t.Errorf("hist[0] = %+v", hist[0])
	}
	if hist[1].StatusLabel() != "safe" {
		t.Errorf("empty status should default to safe, got %q", hist[1].StatusLabel())
	}
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close() //nolint:errcheck
		if hdr.Filename != "sample.bin" {
			t.Errorf("filename = %q, want sample.bin", hdr.Filename)
		}
		json.NewEncoder(w).Encode(AnalyzeResult{Status: "Task queued", ID: "abc", Hash: "deadbeef"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	res, err := c.Analyze(context.Background(), "A1", "sample.bin", strings.NewReader("MZ..."))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if res.Status != "Task queued" || res.ID != "abc" {
		t.Errorf("result = %+v", res)
	}
}

func TestFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/partials/header" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("VEXSCAN {{auth}}")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	frag, err := c.Fragment(context.Background(), "header")
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if frag != "VEXSCAN {{auth}}" {
		t.Errorf("fragment = %q", frag)
	}
}

func TestIsNetwork(t *testing.T) {
	// Closed server: transport error, no response.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Me(context.Background(), "A1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !IsNetwork(err) {
		t.Errorf("IsNetwork = false for %v", err)
	}
	if IsCredentialInvalid(err) {
		t.Error("transport errors must not count as credential failures")
	}
}

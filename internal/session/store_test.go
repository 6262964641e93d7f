package session

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"github.com/vexscan/vex/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return s
}

func TestFileStoreRoundtrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	sess := domain.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		User:         &domain.User{ID: 1, Username: "a", Email: "a@b"},
	}
	if err := s.Set(sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	// A fresh store over the same file sees the whole record.
	reopened, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	got := reopened.Get()
	if got.AccessToken != "A1" || got.RefreshToken != "R1" {
		t.Errorf("tokens = %q %q, want A1 R1", got.AccessToken, got.RefreshToken)
	}
	if got.User == nil || got.User.Username != "a" {
		t.Errorf("user = %+v, want cached profile", got.User)
	}

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Set")
	}
}

func TestFileStoreSetUserKeepsTokens(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(domain.Session{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUser(&domain.User{ID: 2, Username: "b"}); err != nil {
		t.Fatalf("SetUser() error: %v", err)
	}
	got := s.Get()
	if got.AccessToken != "A1" || got.RefreshToken != "R1" {
		t.Errorf("SetUser must not touch tokens, got %q %q", got.AccessToken, got.RefreshToken)
	}
	if got.User == nil || got.User.ID != 2 {
		t.Errorf("user = %+v", got.User)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(domain.Session{AccessToken: "A1", RefreshToken: "R1", User: &domain.User{ID: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if got := s.Get(); got.HasTokens() || got.User != nil {
		t.Errorf("session not empty after Clear: %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file still exists after Clear")
	}
	// Clearing an already-empty store is fine.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error: %v", err)
	}
}

func TestFileStoreCorruptFileStartsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if got := s.Get(); got.HasTokens() {
		t.Errorf("corrupt file should yield empty session, got %+v", got)
	}
}

func TestFileStoreGetReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(domain.Session{AccessToken: "A1", User: &domain.User{Username: "a"}}); err != nil {
		t.Fatal(err)
	}
	got := s.Get()
	got.User.Username = "mutated"
	if s.Get().User.Username != "a" {
		t.Error("Get must return a copy, not the cached record")
	}
}

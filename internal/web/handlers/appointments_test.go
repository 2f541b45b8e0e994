package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pawsoft/vetclinic/internal/auth"
	"github.com/pawsoft/vetclinic/internal/database"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return New(db, nil, auth.NewAuthService(db), "test", true)
}

func TestAppointmentsPage_BadDateRedirects(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/appointments?date=not-a-date", nil)
	rec := httptest.NewRecorder()
	h.AppointmentsPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for bad date filter, got status %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/appointments" {
		t.Fatalf("expected redirect to /appointments, got %q", loc)
	}

	var flashed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "flash_err" && strings.Contains(c.Value, "Invalid date") {
			flashed = true
		}
	}
	if !flashed {
		t.Fatal("expected an error flash for the bad date filter")
	}
}

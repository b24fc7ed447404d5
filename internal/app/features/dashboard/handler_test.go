package dashboard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/camphub/internal/app/features/dashboard"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeDashboard_VisitorRedirectsHome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := dashboard.NewHandler(db, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeDashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}

func TestServeDashboard_SignedIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateRegistrant(ctx, "Ana Cruz", 30, "Female", "Bae", 1)

	h := dashboard.NewHandler(db, zap.NewNop())

	for _, user := range []testutil.TestUser{testutil.AdminUser(), testutil.ViewerUser()} {
		rec := httptest.NewRecorder()
		// Rendering may panic without an initialized template engine.
		func() {
			defer func() { _ = recover() }()
			h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", user))
		}()
		if loc := rec.Header().Get("Location"); loc != "" {
			t.Errorf("%s: unexpected redirect to %q", user.Role, loc)
		}
	}
}

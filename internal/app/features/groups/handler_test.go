package groups_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/camphub/internal/app/features/groups"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
)

type fakeFinder struct {
	calls  int
	filter registrantstore.Filter
	err    error
}

func (f *fakeFinder) Find(_ context.Context, flt registrantstore.Filter, _ registrantstore.Order) ([]models.Registrant, error) {
	f.calls++
	f.filter = flt
	return nil, f.err
}

func TestServeGroups_UnknownTabRedirects(t *testing.T) {
	store := &fakeFinder{}
	h := groups.NewHandler(store, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeGroups(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/groups?tab=9", testutil.ViewerUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/groups" {
		t.Errorf("Location: got %q", loc)
	}
	if store.calls != 0 {
		t.Error("store should not be queried for a bad tab")
	}
}

func TestServeGroups_LoadsEligibleOnly(t *testing.T) {
	for _, tab := range []string{"", "all", "1", "5", "unassigned"} {
		store := &fakeFinder{}
		h := groups.NewHandler(store, zap.NewNop())

		rec := httptest.NewRecorder()
		func() {
			defer func() { _ = recover() }()
			h.ServeGroups(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/groups?tab="+tab, testutil.ViewerUser()))
		}()

		if store.calls != 1 {
			t.Errorf("tab %q: Find called %d times", tab, store.calls)
		}
		if store.filter.MinAge != rules.MinAge {
			t.Errorf("tab %q: MinAge %d, want %d", tab, store.filter.MinAge, rules.MinAge)
		}
	}
}

func TestServeGroups_StoreError(t *testing.T) {
	h := groups.NewHandler(&fakeFinder{err: errors.New("down")}, zap.NewNop())

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.ServeGroups(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/groups", testutil.AdminUser()))
	}()

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

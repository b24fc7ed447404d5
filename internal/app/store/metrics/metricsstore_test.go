package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/camphub/internal/app/store/metrics"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.uber.org/zap"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db, zap.NewNop())

	if counts.Eligible != 0 || counts.Unassigned != 0 || counts.Underage != 0 || counts.Accounts != 0 {
		t.Errorf("expected all zero counts, got %+v", counts)
	}
	if len(counts.Groups) != 5 {
		t.Fatalf("Groups: got %d tiles, want 5", len(counts.Groups))
	}
	for i, g := range counts.Groups {
		if g.Group != i+1 || g.Count != 0 {
			t.Errorf("Groups[%d] = %+v, want {%d 0}", i, g, i+1)
		}
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAdmin(ctx, "Camp Admin", "admin@example.com")
	fixtures.CreateDisabledUser(ctx, "Former Admin", "former@example.com")

	fixtures.CreateRegistrant(ctx, "Ana Cruz", 30, "Female", "Bae", 1)
	fixtures.CreateRegistrant(ctx, "Ben Cruz", 12, "Male", "Bae", 1)
	fixtures.CreateRegistrant(ctx, "Cai Reyes", 41, "Male", "Calamba", 3)
	fixtures.CreateRegistrant(ctx, "Dee Reyes", 19, "Female", "Calamba", 0)
	fixtures.CreateRegistrant(ctx, "Eli Reyes", 9, "Male", "Calamba", 0)
	// Grouped before the age rule existed; still underage.
	fixtures.CreateRegistrant(ctx, "Fay Reyes", 7, "Female", "Calamba", 2)

	counts := metricsstore.FetchDashboardCounts(ctx, db, zap.NewNop())

	if counts.Eligible != 4 {
		t.Errorf("Eligible: got %d, want 4", counts.Eligible)
	}
	if counts.Unassigned != 1 {
		t.Errorf("Unassigned: got %d, want 1", counts.Unassigned)
	}
	if counts.Underage != 2 {
		t.Errorf("Underage: got %d, want 2", counts.Underage)
	}
	if counts.Accounts != 1 {
		t.Errorf("Accounts: got %d, want 1", counts.Accounts)
	}

	want := []int64{2, 0, 1, 0, 0}
	for i, g := range counts.Groups {
		if g.Count != want[i] {
			t.Errorf("group %d: got %d, want %d", g.Group, g.Count, want[i])
		}
	}
	if counts.Assigned() != 3 {
		t.Errorf("Assigned(): got %d, want 3", counts.Assigned())
	}
}

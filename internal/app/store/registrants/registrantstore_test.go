package registrantstore_test

import (
	"errors"
	"testing"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func row(name string, age int, gender, location string) models.Registrant {
	return models.Registrant{FullName: name, Age: age, Gender: gender, ChurchLocation: location, ImportBatch: "batch-1"}
}

func TestStore_InsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saved, err := store.Insert(ctx, models.Registrant{FullName: "José Rizal", Age: 20, Gender: "Male", ChurchLocation: "Calamba"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if saved.ID.IsZero() || saved.CreatedAt.IsZero() {
		t.Errorf("Insert did not stamp the record: %+v", saved)
	}
	if saved.FullNameCI != "jose rizal" {
		t.Errorf("FullNameCI = %q", saved.FullNameCI)
	}

	got, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "José Rizal" || got.AssignedGroup != nil {
		t.Errorf("GetByID = %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, registrantstore.ErrNotFound) {
		t.Errorf("GetByID unknown: got %v, want ErrNotFound", err)
	}
}

func TestStore_FindAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateRegistrant(ctx, "Ána Cruz", 30, "Female", "Bae", 1)
	fixtures.CreateRegistrant(ctx, "Ben Reyes", 14, "Male", "Pila", 0)
	fixtures.CreateRegistrant(ctx, "Carlo Young", 9, "Male", "Pila", 0)

	all, err := store.Find(ctx, registrantstore.Filter{}, registrantstore.OrderCreated)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 3 || all[0].FullName != "Ána Cruz" || all[2].FullName != "Carlo Young" {
		t.Errorf("Find all in creation order: %v", all)
	}

	newest, _ := store.Find(ctx, registrantstore.Filter{}, registrantstore.OrderNewest)
	if len(newest) != 3 || newest[0].FullName != "Carlo Young" || newest[2].FullName != "Ána Cruz" {
		t.Errorf("Find newest first: %v", newest)
	}

	eligible, _ := store.Find(ctx, registrantstore.Filter{MinAge: 12}, registrantstore.OrderName)
	if len(eligible) != 2 {
		t.Errorf("eligible: got %d, want 2", len(eligible))
	}

	search, _ := store.Find(ctx, registrantstore.Filter{Search: "ana"}, registrantstore.OrderName)
	if len(search) != 1 || search[0].FullName != "Ána Cruz" {
		t.Errorf("search ignores diacritics: %v", search)
	}

	n, err := store.Count(ctx, registrantstore.Filter{MinAge: 12, Unassigned: true})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("eligible unassigned: got %d, want 1", n)
	}

	counts, err := store.GroupCounts(ctx, 12)
	if err != nil {
		t.Fatalf("GroupCounts: %v", err)
	}
	if counts[1] != 1 || counts[2] != 0 || len(counts) != 5 {
		t.Errorf("GroupCounts = %v", counts)
	}
}

func TestStore_UpsertMany_NoKeysInserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rows := []models.Registrant{row("Ana Cruz", 30, "Female", "Bae"), row("Ben Reyes", 14, "Male", "Pila")}
	for i := 0; i < 2; i++ {
		n, err := store.UpsertMany(ctx, rows, nil)
		if err != nil {
			t.Fatalf("UpsertMany: %v", err)
		}
		if n != 2 {
			t.Errorf("affected: got %d, want 2", n)
		}
	}
	total, _ := store.Count(ctx, registrantstore.Filter{})
	if total != 4 {
		t.Errorf("plain inserts should duplicate: got %d, want 4", total)
	}

	deleted, err := store.DeleteByBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("DeleteByBatch: %v", err)
	}
	if deleted != 4 {
		t.Errorf("DeleteByBatch: got %d, want 4", deleted)
	}
}

func TestStore_UpsertMany_WithKeysIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateRegistrant(ctx, "Ana Cruz", 29, "Female", "Bae", 3)
	keys := []string{"full_name", "church_location"}
	rows := []models.Registrant{row("ANA CRUZ", 30, "Female", "Bae"), row("Ben Reyes", 14, "Male", "Pila")}

	for i := 0; i < 2; i++ {
		n, err := store.UpsertMany(ctx, rows, keys)
		if err != nil {
			t.Fatalf("UpsertMany: %v", err)
		}
		if n != 2 {
			t.Errorf("run %d affected: got %d, want 2", i, n)
		}
	}

	all, _ := store.Find(ctx, registrantstore.Filter{}, registrantstore.OrderName)
	if len(all) != 2 {
		t.Fatalf("records: got %d, want 2", len(all))
	}
	ana := all[0]
	if ana.Age != 30 || ana.FullName != "ANA CRUZ" {
		t.Errorf("upsert should replace data fields: %+v", ana)
	}
	if ana.AssignedGroup == nil || *ana.AssignedGroup != 3 {
		t.Errorf("upsert must keep the assigned group: %v", ana.AssignedGroup)
	}
	if ana.ImportBatch != "" || all[1].ImportBatch != "batch-1" {
		t.Errorf("batch tags: got %q and %q, want only the new row tagged", ana.ImportBatch, all[1].ImportBatch)
	}
}

func TestStore_UpsertMany_UnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.UpsertMany(ctx, []models.Registrant{row("Ana Cruz", 30, "Female", "Bae")}, []string{"email"})
	if !errors.Is(err, registrantstore.ErrUnknownConflictKey) {
		t.Errorf("got %v, want ErrUnknownConflictKey", err)
	}
}

func TestStore_AssignAllUngrouped_Balances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateRegistrant(ctx, "G1 A", 20, "Male", "Bae", 1)
	fixtures.CreateRegistrant(ctx, "G1 B", 20, "Male", "Bae", 1)
	fixtures.CreateRegistrant(ctx, "G2 A", 20, "Male", "Bae", 2)
	first := fixtures.CreateRegistrant(ctx, "New One", 15, "Female", "Pila", 0)
	second := fixtures.CreateRegistrant(ctx, "New Two", 16, "Female", "Pila", 0)
	third := fixtures.CreateRegistrant(ctx, "New Three", 17, "Male", "Pila", 0)
	kid := fixtures.CreateRegistrant(ctx, "Too Young", 10, "Male", "Pila", 0)

	out, err := store.Invoke(ctx, registrantstore.OpAssignAllUngrouped, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	res := out.(registrantstore.AssignResult)
	if res.Assigned != 3 {
		t.Errorf("Assigned: got %d, want 3", res.Assigned)
	}

	want := map[primitive.ObjectID]int{first.ID: 3, second.ID: 4, third.ID: 5}
	for id, g := range want {
		got, _ := store.GetByID(ctx, id)
		if got.AssignedGroup == nil || *got.AssignedGroup != g {
			t.Errorf("%s: group %v, want %d", got.FullName, got.AssignedGroup, g)
		}
	}
	if got, _ := store.GetByID(ctx, kid.ID); got.AssignedGroup != nil {
		t.Error("underage registrant must stay unassigned")
	}

	again, err := store.AssignAllUngrouped(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Assigned != 0 {
		t.Errorf("second run assigned %d, want 0", again.Assigned)
	}
}

func TestStore_AssignOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateRegistrant(ctx, "G1 A", 20, "Male", "Bae", 1)
	target := fixtures.CreateRegistrant(ctx, "Target", 20, "Female", "Bae", 0)
	kid := fixtures.CreateRegistrant(ctx, "Kid", 11, "Male", "Bae", 0)

	out, err := store.Invoke(ctx, registrantstore.OpAssignOne, map[string]any{"id": target.ID.Hex()})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res := out.(registrantstore.AssignResult); res.Assigned != 1 {
		t.Errorf("Assigned: got %d, want 1", res.Assigned)
	}
	got, _ := store.GetByID(ctx, target.ID)
	if got.AssignedGroup == nil || *got.AssignedGroup != 2 {
		t.Errorf("group: got %v, want 2", got.AssignedGroup)
	}

	if _, err := store.AssignOne(ctx, kid.ID); !errors.Is(err, registrantstore.ErrNotEligible) {
		t.Errorf("underage: got %v, want ErrNotEligible", err)
	}
	if _, err := store.AssignOne(ctx, primitive.NewObjectID()); !errors.Is(err, registrantstore.ErrNotFound) {
		t.Errorf("unknown: got %v, want ErrNotFound", err)
	}
}

func TestStore_Invoke_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := registrantstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Invoke(ctx, "drop_everything", nil); !errors.Is(err, registrantstore.ErrUnknownOperation) {
		t.Errorf("unknown op: got %v", err)
	}
	if _, err := store.Invoke(ctx, registrantstore.OpAssignOne, map[string]any{"id": "nope"}); !errors.Is(err, registrantstore.ErrBadArgument) {
		t.Errorf("bad id: got %v", err)
	}
	if _, err := store.Invoke(ctx, registrantstore.OpAssignOne, nil); !errors.Is(err, registrantstore.ErrBadArgument) {
		t.Errorf("missing id: got %v", err)
	}
}

func TestParseConflictKeys(t *testing.T) {
	got, err := registrantstore.ParseConflictKeys(" Full_Name, church_location ,,")
	if err != nil {
		t.Fatalf("ParseConflictKeys: %v", err)
	}
	if len(got) != 2 || got[0] != "full_name" || got[1] != "church_location" {
		t.Errorf("got %v", got)
	}

	if got, err := registrantstore.ParseConflictKeys(""); err != nil || got != nil {
		t.Errorf("empty: got %v, %v", got, err)
	}
	if _, err := registrantstore.ParseConflictKeys("full_name,email"); !errors.Is(err, registrantstore.ErrUnknownConflictKey) {
		t.Errorf("unknown key: got %v", err)
	}
}

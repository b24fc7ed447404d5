package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	"github.com/dalemusser/camphub/internal/app/store/audit"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/camphub/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestEnv(t *testing.T) {
	t.Setenv("CAMPHUB_EVENT_NAME", "  Summer Camp ")
	if got := env("event_name", "x"); got != "Summer Camp" {
		t.Errorf("env = %q", got)
	}
	if got := env("missing_key_for_test", "fallback"); got != "fallback" {
		t.Errorf("env fallback = %q", got)
	}
}

func TestWriteFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := writeFile(path, []byte("one"), false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFile(path, []byte("two"), false); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("second write: got %v, want refusal", err)
	}
	if err := writeFile(path, []byte("three"), true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "three" {
		t.Errorf("content = %q", got)
	}
}

func TestTemplateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.xlsx")

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"template", out, "--validation-rows", "20"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout.String(), "Wrote "+out) {
		t.Errorf("stdout = %q", stdout.String())
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if f.GetSheetName(0) != xlsxutil.TemplateSheet {
		t.Errorf("sheet = %q", f.GetSheetName(0))
	}
}

func TestImportCommand_RejectsUnknownConflictKey(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"import", "nope.xlsx", "--conflict-keys", "email"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "email") {
		t.Errorf("got %v, want unknown key error", err)
	}
}

func TestUndoImportCommand_RecordsAuditEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := registrantstore.New(db, zap.NewNop())
	for _, name := range []string{"Ana Cruz", "Ben Reyes"} {
		if _, err := store.Insert(ctx, models.Registrant{FullName: name, Age: 14, Gender: "Male", ChurchLocation: "Bae", ImportBatch: "batch-7"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	t.Setenv("CAMPHUB_AUDIT_LOG_DATA", "db")
	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"undo-import", "batch-7", "--mongo-uri", testutil.MongoURI(), "--database", db.Name()})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout.String(), "Deleted 2 registrant(s) from batch batch-7") {
		t.Errorf("stdout = %q", stdout.String())
	}

	events, err := audit.New(db).Query(ctx, audit.QueryFilter{EventType: audit.EventImportUndone})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if !e.Success || e.IP != "cli" || e.Details["batch_id"] != "batch-7" || e.Details["deleted"] != "2" {
		t.Errorf("event = %+v", e)
	}
}

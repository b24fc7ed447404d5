package xlsxutil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// fakeStore records the rows handed to UpsertMany.
type fakeStore struct {
	got      []models.Registrant
	keys     []string
	calls    int
	affected int64 // -1 means "report len(rows)"
	err      error
}

func (s *fakeStore) UpsertMany(_ context.Context, rows []models.Registrant, keys []string) (int64, error) {
	s.calls++
	s.got = append([]models.Registrant(nil), rows...)
	s.keys = keys
	if s.err != nil {
		return 0, s.err
	}
	if s.affected < 0 {
		return int64(len(rows)), nil
	}
	return s.affected, nil
}

func newFakeStore() *fakeStore { return &fakeStore{affected: -1} }

var errStoreDown = errors.New("connection refused")

// workbook builds an .xlsx whose first sheet holds rows starting at A1.
func workbook(t *testing.T, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func header() []interface{} {
	return []interface{}{"Full Name", "Age", "Gender", "Location"}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

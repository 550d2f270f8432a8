package record

import (
	"errors"
	"testing"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/husqvarna"
)

func internalMower(id, model, status, opMode string) husqvarna.InternalMower {
	var m husqvarna.InternalMower
	m.ID = id
	m.Model = model
	m.Status.MowerStatus = status
	m.Status.OperatingMode = opMode
	return m
}

func TestMergeInternalPositional(t *testing.T) {
	records := []*DeviceRecord{
		{Manufacturer: ManufacturerHusqvarna, DeviceID: "ext-A"},
		{Manufacturer: ManufacturerHusqvarna, DeviceID: "ext-B"},
	}
	internal := []husqvarna.InternalMower{
		internalMower("int-a", "AM450X", "OK_CUTTING", "AUTO"),
		internalMower("int-b", "AM315", "PARKED_PARKED_SELECTED", "HOME"),
	}

	if err := MergeInternal(records, internal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Index 0 combines ext-A with int-a, never ext-A with int-b.
	if records[0].InternalID != "int-a" || records[0].InternalModel != "AM450X" {
		t.Errorf("record[0] joined %q/%q", records[0].InternalID, records[0].InternalModel)
	}
	if records[0].InternalStatus != "OK_CUTTING" || records[0].InternalOpMode != "AUTO" {
		t.Errorf("record[0] status %q/%q", records[0].InternalStatus, records[0].InternalOpMode)
	}
	if records[1].InternalID != "int-b" {
		t.Errorf("record[1] joined %q", records[1].InternalID)
	}
}

func TestMergeInternalLengthMismatchFailsClosed(t *testing.T) {
	records := []*DeviceRecord{{DeviceID: "ext-A"}}
	internal := []husqvarna.InternalMower{
		internalMower("int-a", "", "", ""),
		internalMower("int-b", "", "", ""),
	}

	err := MergeInternal(records, internal)
	if err == nil {
		t.Fatal("expected an error for mismatched list lengths")
	}
	var mismatch *ErrListMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ErrListMismatch, got %T", err)
	}
	if mismatch.External != 1 || mismatch.Internal != 2 {
		t.Errorf("mismatch = %d/%d", mismatch.External, mismatch.Internal)
	}
	// The records must be untouched.
	if records[0].InternalID != "" {
		t.Errorf("record mutated on failed merge: %q", records[0].InternalID)
	}
}

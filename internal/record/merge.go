package record

import (
	"fmt"

	"github.com/khoward12/yard-data-aggregation/internal/upstream/husqvarna"
)

// ErrListMismatch is returned when the external and internal mower listings
// disagree in length and cannot be joined safely.
type ErrListMismatch struct {
	External int
	Internal int
}

func (e *ErrListMismatch) Error() string {
	return fmt.Sprintf("external and internal mower lists differ in length (%d vs %d)", e.External, e.Internal)
}

// MergeInternal joins the internal mower listing into the normalized
// external records positionally: index i of the internal list describes the
// same physical mower as index i of the external list.
//
// The two APIs expose no shared identifier, so position is the only join key
// available; both endpoints return mowers in pairing order. The length check
// fails closed rather than risking a silent misalignment when the listings
// ever drift apart.
func MergeInternal(records []*DeviceRecord, mowers []husqvarna.InternalMower) error {
	if len(records) != len(mowers) {
		return &ErrListMismatch{External: len(records), Internal: len(mowers)}
	}

	for i, m := range mowers {
		rec := records[i]
		rec.InternalID = m.ID
		rec.InternalModel = m.Model
		rec.InternalStatus = m.Status.MowerStatus
		rec.InternalOpMode = m.Status.OperatingMode
	}
	return nil
}

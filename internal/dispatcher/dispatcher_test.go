package dispatcher

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/castmux/transcoder/internal/events"
	"github.com/castmux/transcoder/internal/pipeline"
)

func TestRecordFinished_Encoded(t *testing.T) {
	d := &Dispatcher{stats: pipeline.RunStats{Total: 1}}
	d.recordFinished(events.NewFinished(uuid.New(), false, false, nil))
	if d.stats.Encoded != 1 {
		t.Errorf("Encoded = %d, want 1", d.stats.Encoded)
	}
}

func TestRecordFinished_Skipped(t *testing.T) {
	d := &Dispatcher{stats: pipeline.RunStats{Total: 1}}
	d.recordFinished(events.NewFinished(uuid.New(), false, true, nil))
	if d.stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", d.stats.Skipped)
	}
	if d.stats.Encoded != 0 {
		t.Errorf("Encoded = %d, want 0", d.stats.Encoded)
	}
}

func TestRecordFinished_Failed(t *testing.T) {
	d := &Dispatcher{stats: pipeline.RunStats{Total: 1}}
	d.recordFinished(events.NewFinished(uuid.New(), false, false, errors.New("boom")))
	if d.stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", d.stats.Failed)
	}
}

func TestRecordFinished_CancelledCountsAsNeither(t *testing.T) {
	d := &Dispatcher{stats: pipeline.RunStats{Total: 1}}
	d.recordFinished(events.NewFinished(uuid.New(), true, false, nil))
	if d.stats.Encoded != 0 || d.stats.Skipped != 0 || d.stats.Failed != 0 {
		t.Errorf("cancelled job affected counters: %+v", d.stats)
	}
}

func TestNew_StartsWithNoSlots(t *testing.T) {
	d := New(nil, nil)
	if len(d.slots) != 0 {
		t.Errorf("new Dispatcher has %d slots, want 0", len(d.slots))
	}
}

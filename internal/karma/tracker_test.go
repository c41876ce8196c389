package karma_test

import (
	"sync"
	"testing"

	"github.com/jmerrifield20/modbot/internal/karma"
)

func TestCount_unseenIsZero(t *testing.T) {
	tr := karma.New(0)
	if n := tr.Count("nobody"); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
	if tr.Len() != 0 {
		t.Error("Count must not create an entry")
	}
	if tr.ThresholdReached("nobody") {
		t.Error("unseen offender flagged")
	}
}

func TestThresholdReached_atTwoAndAfter(t *testing.T) {
	tr := karma.New(karma.DefaultThreshold)

	tr.Record("u-1")
	if tr.ThresholdReached("u-1") {
		t.Fatal("flagged after one report")
	}
	for n := 2; n <= 5; n++ {
		if got := tr.Record("u-1"); got != n {
			t.Fatalf("Record() = %d, want %d", got, n)
		}
		if !tr.ThresholdReached("u-1") {
			t.Errorf("not flagged after %d reports", n)
		}
	}
	if tr.ThresholdReached("u-2") {
		t.Error("threshold leaked to another offender")
	}
}

func TestRecord_concurrent(t *testing.T) {
	tr := karma.New(2)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("u-1")
		}()
	}
	wg.Wait()
	if n := tr.Count("u-1"); n != 50 {
		t.Errorf("Count() = %d, want 50", n)
	}
	if snap := tr.Snapshot(); snap["u-1"] != 50 || len(snap) != 1 {
		t.Errorf("Snapshot() = %v", snap)
	}
}

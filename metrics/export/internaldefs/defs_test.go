package internaldefs

import (
	"testing"

	"github.com/MrEthical07/authchain"
)

func TestBucketsAreCumulative(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [authchain.HistogramBuckets]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBoundSuffix(t *testing.T) {
	if len(BoundSuffix) != authchain.HistogramBuckets {
		t.Fatalf("len = %d", len(BoundSuffix))
	}
	if BoundSuffix[0] != "0_001" || BoundSuffix[len(BoundSuffix)-1] != "inf" {
		t.Fatalf("unexpected suffixes %v", BoundSuffix)
	}
}

func TestEveryCounterIsUnique(t *testing.T) {
	seenID := map[authchain.MetricID]bool{}
	seenName := map[string]bool{}
	for _, def := range CounterDefs {
		if seenID[def.ID] || seenName[def.Name] {
			t.Fatalf("duplicate definition %+v", def)
		}
		seenID[def.ID] = true
		seenName[def.Name] = true
	}
	if seenID[authchain.MetricVerifyLatency] {
		t.Fatal("latency is a histogram, not a counter")
	}
}

package resolution

import (
	"testing"

	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

func datasets(t *testing.T) *registry.DatasetRegistry {
	t.Helper()
	r, err := registry.NewDatasetRegistry()
	if err != nil {
		t.Fatalf("NewDatasetRegistry failed: %v", err)
	}
	return r
}

func TestClassifyStatuses(t *testing.T) {
	r := datasets(t)
	cases := []struct {
		name string
		want Status
	}{
		{"SST-2", StatusResolved},
		{"glue/sst2", StatusResolved},
		{"mnist", StatusResolved},
		{"ImageNet", StatusBlocked},
		{"openimages", StatusBlocked},
		{"NYC Taxi + NOAA Weather", StatusComplex},
		{"eia hourly load", StatusComplex},
		{"proprietary-internal-logs", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tc := range cases {
		got := Classify(tc.name, r)
		if got.Status != tc.want {
			t.Errorf("Classify(%q).Status = %q, want %q (reason: %s)",
				tc.name, got.Status, tc.want, got.Reason)
		}
	}
}

func TestClassifyResolvedCarriesCanonicalName(t *testing.T) {
	got := Classify("SST-2", datasets(t))
	if got.CanonicalName != "sst2" {
		t.Errorf("CanonicalName = %q, want sst2", got.CanonicalName)
	}
	if got.Source != registry.SourceHuggingFace {
		t.Errorf("Source = %q, want %q", got.Source, registry.SourceHuggingFace)
	}
}

func TestIsComplex(t *testing.T) {
	if !IsComplex("Taxi trips with Weather covariates") {
		t.Error("taxi+weather name should be complex")
	}
	if IsComplex("cifar10") {
		t.Error("cifar10 should not be complex")
	}
}

func TestClassifyBlockedBeatsComplex(t *testing.T) {
	// "openimages" is blocked even though "openimages ... subset" would
	// otherwise match a complexity pattern.
	got := Classify("openimages", datasets(t))
	if got.Status != StatusBlocked {
		t.Errorf("Status = %q, want blocked", got.Status)
	}
}

package idhash

import "testing"

func TestComputeVersionHash_Deterministic(t *testing.T) {
	params := map[string]string{
		"lookback":  "24",
		"threshold": "0.8",
	}

	h1 := ComputeVersionHash("momentum", "1.2.0", params)
	h2 := ComputeVersionHash("momentum", "1.2.0", params)

	if h1 != h2 {
		t.Errorf("hash not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestComputeVersionHash_KeyOrderIndependent(t *testing.T) {
	// Maps iterate in random order; sorted-key hashing must hide that.
	a := ComputeVersionHash("breakout", "2.0.0", map[string]string{
		"a": "1", "b": "2", "c": "3",
	})
	b := ComputeVersionHash("breakout", "2.0.0", map[string]string{
		"c": "3", "a": "1", "b": "2",
	})
	if a != b {
		t.Errorf("hash depends on map iteration order")
	}
}

func TestComputeVersionHash_ParamChangeChangesHash(t *testing.T) {
	base := ComputeVersionHash("momentum", "1.0.0", map[string]string{"k": "1"})
	changed := ComputeVersionHash("momentum", "1.0.0", map[string]string{"k": "2"})
	if base == changed {
		t.Errorf("parameter change did not change hash")
	}
}

func TestComputeVersionHash_EmptyParams(t *testing.T) {
	h := ComputeVersionHash("mean_reversion", "1.0.0", nil)
	if len(h) != 64 {
		t.Errorf("expected 64 hex chars for nil params, got %d", len(h))
	}
}

package executor

import "testing"

func TestOrderedArgs(t *testing.T) {
	args, err := orderedArgs(map[string]any{
		"$1": "tenant-1",
		"$2": float64(50000),
		"$3": "%denver%",
	})
	if err != nil {
		t.Fatalf("orderedArgs: %v", err)
	}
	if len(args) != 3 {
		t.Fatalf("len = %d, want 3", len(args))
	}
	if args[0] != "tenant-1" || args[1] != float64(50000) || args[2] != "%denver%" {
		t.Errorf("args out of order: %v", args)
	}
}

func TestOrderedArgsEmpty(t *testing.T) {
	args, err := orderedArgs(map[string]any{})
	if err != nil {
		t.Fatalf("orderedArgs: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("len = %d, want 0", len(args))
	}
}

func TestOrderedArgsGap(t *testing.T) {
	// $2 missing: the bundle is malformed and must be refused.
	_, err := orderedArgs(map[string]any{"$1": "a", "$3": "b"})
	if err == nil {
		t.Fatal("expected error for gapped parameter map")
	}
}

package policy_test

import (
	"strings"
	"testing"

	"github.com/jdelaire/tgrambot/core/policy"
)

func TestAdmitFirstSeen(t *testing.T) {
	p := policy.New()
	if err := p.Admit(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdmitDuplicateUpdateID(t *testing.T) {
	p := policy.New()

	if err := p.Admit(42); err != nil {
		t.Fatalf("first: %v", err)
	}

	err := p.Admit(42)
	if err == nil {
		t.Fatal("expected error for duplicate update_id")
	}
	if !strings.Contains(err.Error(), "duplicate update") {
		t.Errorf("error = %q, want 'duplicate update'", err)
	}
}

func TestAdmitDistinctIDs(t *testing.T) {
	p := policy.New()
	for i := int64(0); i < 100; i++ {
		if err := p.Admit(i); err != nil {
			t.Fatalf("Admit(%d): %v", i, err)
		}
	}
	if p.Len() != 100 {
		t.Errorf("Len = %d, want 100", p.Len())
	}
}

func TestAdmitPrunesOldest(t *testing.T) {
	p := policy.NewWithCapacity(3)
	for _, id := range []int64{1, 2, 3, 4} {
		if err := p.Admit(id); err != nil {
			t.Fatalf("Admit(%d): %v", id, err)
		}
	}

	if p.Len() > 3 {
		t.Errorf("Len = %d, want <= 3", p.Len())
	}
	// 1 was pruned, so it is admitted again.
	if err := p.Admit(1); err != nil {
		t.Errorf("Admit(1) after prune: %v", err)
	}
	if err := p.Admit(4); err == nil {
		t.Error("expected 4 to still be remembered")
	}
}

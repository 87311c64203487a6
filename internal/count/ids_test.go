package count_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/calvinalkan/cycle-count/internal/count"
)

func Test_NewID_Returns_Prefixed_Crockford_Id(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for range 1000 {
		id, err := count.NewID(count.AssignmentPrefix)
		if err != nil {
			t.Fatalf("new id: %v", err)
		}

		if len(id) != 13 || !strings.HasPrefix(id, "A") {
			t.Fatalf("id=%q, want A + 12 chars", id)
		}

		if strings.ContainsAny(id[1:], "ILOU") {
			t.Fatalf("id=%q has non-Crockford characters", id)
		}

		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}

		seen[id] = true
	}
}

func Test_ShortIDFromUUID_Rejects_Non_V7(t *testing.T) {
	t.Parallel()

	_, err := count.ShortIDFromUUID(uuid.New())
	if err == nil {
		t.Fatal("expected error for uuidv4")
	}
}

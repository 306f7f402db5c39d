package transaction

import (
	"testing"

	"github.com/dshills/inkblock/internal/engine/entity"
)

func entityMutability(t *testing.T, s string) entity.Mutability {
	t.Helper()
	m, err := entity.ParseMutability(s)
	if err != nil {
		t.Fatalf("ParseMutability: %v", err)
	}
	return m
}

package memory

import (
	"testing"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/persistence/storetest"
)

func TestStorageContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return New()
	})
}

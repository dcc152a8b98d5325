package memory

import (
	"testing"

	"moneymind/internal/storage"
	"moneymind/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}

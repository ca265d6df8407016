package memstore

import (
	"testing"

	"github.com/mesh-intelligence/tabledesk/internal/storetest"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store { return New() })
}

package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

func TestNoopBridgeRunsWithZeroPersistence(t *testing.T) {
	b := Noop{}

	snap, err := b.Load(context.Background(), "live")
	require.NoError(t, err)
	assert.Nil(t, snap) // always a fresh session

	err = b.Save(context.Background(), "live", model.ServiceState{Version: 3})
	assert.NoError(t, err)
}

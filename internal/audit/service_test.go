package audit

import (
	"context"
	"testing"

	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogSnapshotsBeforeAndAfter(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	uid := uint(3)

	err := WriteLog(ctx, store, LogOptions{
		UserID:     &uid,
		UserName:   "admin",
		EntityType: EntityInventoryItem,
		EntityID:   7,
		Action:     models.AuditActionUpdate,
		Before:     map[string]int{"stock": 1},
		After:      map[string]int{"stock": 4},
	})
	require.NoError(t, err)

	logs, err := store.Audit().List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"stock":1}`, logs[0].BeforeData)
	assert.JSONEq(t, `{"stock":4}`, logs[0].AfterData)
	assert.Equal(t, "admin", logs[0].UserName)
}

func TestWriteLogUsesJSONNullForMissingSnapshots(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	require.NoError(t, WriteLog(ctx, store, LogOptions{EntityType: EntityBomGuide, Action: models.AuditActionDelete}))

	logs, err := store.Audit().List(ctx, repository.AuditFilter{EntityType: EntityBomGuide})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "null", logs[0].BeforeData)
	assert.Equal(t, "null", logs[0].AfterData)
}

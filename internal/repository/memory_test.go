package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"warehouse-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func seedRows(t *testing.T, s *MemoryStore, rows ...models.InventoryItem) []models.InventoryItem {
	t.Helper()
	out := make([]models.InventoryItem, 0, len(rows))
	for _, row := range rows {
		require.NoError(t, s.Inventory().Create(context.Background(), &row))
		out = append(out, row)
	}
	return out
}

func TestInventoryCreateAllowsDuplicateCodes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rows := seedRows(t, s,
		models.InventoryItem{Code: "X1", Name: "Bolt", Stock: 5, Location: strPtr("A구역-1-1")},
		models.InventoryItem{Code: "X1", Name: "Bolt", Stock: 3, Location: strPtr("B구역-1-2")},
	)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.False(t, rows[0].CreatedAt.IsZero())

	byCode, err := s.Inventory().ListByCode(ctx, "X1")
	require.NoError(t, err)
	assert.Len(t, byCode, 2)

	first, err := s.Inventory().GetByCode(ctx, "X1")
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, first.ID)
}

func TestUpdateByCodeTouchesFirstRowOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows := seedRows(t, s,
		models.InventoryItem{Code: "X1", Stock: 5},
		models.InventoryItem{Code: "X1", Stock: 5},
	)

	updated, err := s.Inventory().UpdateByCode(ctx, "X1", InventoryPatch{Stock: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, updated.ID)

	second, err := s.Inventory().GetByID(ctx, rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Stock)
}

func TestUpdateByIDBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	rows := seedRows(t, s, models.InventoryItem{Code: "X1", Stock: 5})
	now = now.Add(time.Hour)

	updated, err := s.Inventory().UpdateByID(ctx, rows[0].ID, InventoryPatch{Location: strPtr("C구역-2-3")})
	require.NoError(t, err)
	assert.Equal(t, "C구역-2-3", updated.LocationValue())
	assert.Equal(t, 5, updated.Stock)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.Inventory().UpdateByID(ctx, 999, InventoryPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByCodeRemovesFirstMatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows := seedRows(t, s,
		models.InventoryItem{Code: "X1"},
		models.InventoryItem{Code: "X1"},
	)

	ok, err := s.Inventory().DeleteByCode(ctx, "X1")
	require.NoError(t, err)
	assert.True(t, ok)

	left, err := s.Inventory().List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, rows[1].ID, left[0].ID)

	ok, err = s.Inventory().DeleteByCode(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows := seedRows(t, s, models.InventoryItem{Code: "X1", Stock: 10})

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx Store) error {
		if _, err := tx.Inventory().UpdateByID(ctx, rows[0].ID, InventoryPatch{Stock: intPtr(0)}); err != nil {
			return err
		}
		if err := tx.Transactions().Append(ctx, &models.Transaction{ItemCode: "X1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := s.Inventory().GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Stock)

	txs, err := s.Transactions().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestAtomicCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Atomic(ctx, func(tx Store) error {
		return tx.Inventory().Create(ctx, &models.InventoryItem{Code: "X1", Stock: 2})
	})
	require.NoError(t, err)

	items, err := s.Inventory().List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAtomicSerializesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows := seedRows(t, s, models.InventoryItem{Code: "X1", Stock: 0})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(tx Store) error {
				item, err := tx.Inventory().GetByID(ctx, rows[0].ID)
				if err != nil {
					return err
				}
				_, err = tx.Inventory().UpdateByID(ctx, item.ID, InventoryPatch{Stock: intPtr(item.Stock + 1)})
				return err
			})
		}()
	}
	wg.Wait()

	item, err := s.Inventory().GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, item.Stock)
}

func TestTransactionsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, code := range []string{"A", "B", "A"} {
		require.NoError(t, s.Transactions().Append(ctx, &models.Transaction{ItemCode: code, Type: models.TransactionInbound, Quantity: 1}))
	}

	byCode, err := s.Transactions().ListByItemCode(ctx, "A")
	require.NoError(t, err)
	require.Len(t, byCode, 2)
	assert.Less(t, byCode[0].ID, byCode[1].ID)
}

func TestExchangeMarkProcessedOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	item := &models.ExchangeQueueItem{ItemCode: "X1", ItemName: "Bolt", Quantity: 2}
	require.NoError(t, s.Exchange().Create(ctx, item))
	assert.False(t, item.OutboundDate.IsZero())

	ok, err := s.Exchange().MarkProcessed(ctx, item.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exchange().MarkProcessed(ctx, item.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := s.Exchange().ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestBomGuideNamesAndReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, row := range []models.BomGuide{
		{GuideName: "guideB", ItemCode: "P1", RequiredQuantity: 1},
		{GuideName: "guideA", ItemCode: "P1", RequiredQuantity: 2},
		{GuideName: "guideA", ItemCode: "P2", RequiredQuantity: 3},
	} {
		require.NoError(t, s.Bom().Create(ctx, &row))
	}

	names, err := s.Bom().GuideNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"guideA", "guideB"}, names)

	removed, err := s.Bom().DeleteByGuide(ctx, "guideA")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	replaced, err := s.Bom().ReplaceAll(ctx, []models.BomGuide{{GuideName: "guideC", ItemCode: "P9", RequiredQuantity: 1}})
	require.NoError(t, err)
	require.Len(t, replaced, 1)

	all, err := s.Bom().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "guideC", all[0].GuideName)
}

func TestUsersRejectDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Users().Create(ctx, &models.User{Username: "admin", Role: models.RoleAdmin}))
	err := s.Users().Create(ctx, &models.User{Username: "admin", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAuditListNewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Audit().Create(ctx, &models.AuditLog{EntityType: "inventory_item", EntityID: 1}))
	require.NoError(t, s.Audit().Create(ctx, &models.AuditLog{EntityType: "bom_guide", EntityID: 1}))
	require.NoError(t, s.Audit().Create(ctx, &models.AuditLog{EntityType: "inventory_item", EntityID: 2}))

	logs, err := s.Audit().List(ctx, AuditFilter{EntityType: "inventory_item"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.EqualValues(t, 2, logs[0].EntityID)
}

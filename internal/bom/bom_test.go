package bom

import (
	"context"
	"errors"
	"testing"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guideA() []models.BomGuide {
	return []models.BomGuide{
		{GuideName: "guideA", ItemCode: "P1", RequiredQuantity: 3},
		{GuideName: "guideA", ItemCode: "P1", RequiredQuantity: 2},
		{GuideName: "guideA", ItemCode: "P2", RequiredQuantity: 5},
	}
}

func TestCheckSumsRepeatedParts(t *testing.T) {
	inventory := []models.InventoryItem{
		{Code: "P2", Name: "Rail", Stock: 6},
		{Code: "P1", Name: "Bolt", Stock: 1},
		{Code: "P1", Name: "Bolt", Stock: 3},
		{Code: "P2", Name: "Rail", Stock: 4},
	}

	report := Check("guideA", guideA(), inventory)
	require.Len(t, report.Lines, 2)

	p1 := report.Lines[0]
	assert.Equal(t, "P1", p1.ItemCode)
	assert.Equal(t, "Bolt", p1.ItemName)
	assert.Equal(t, 5, p1.RequiredQuantity)
	assert.Equal(t, 4, p1.CurrentStock)
	assert.Equal(t, StatusShortage, p1.Status)
	assert.Equal(t, 1, p1.Shortfall)

	p2 := report.Lines[1]
	assert.Equal(t, "P2", p2.ItemCode)
	assert.Equal(t, 5, p2.RequiredQuantity)
	assert.Equal(t, 10, p2.CurrentStock)
	assert.Equal(t, StatusSufficient, p2.Status)
	assert.Zero(t, p2.Shortfall)

	assert.False(t, report.Sufficient)
	assert.Equal(t, 1, report.Shortages)
}

func TestCheckFallsBackToGenericName(t *testing.T) {
	report := Check("g", []models.BomGuide{{GuideName: "g", ItemCode: "Z9", RequiredQuantity: 1}}, nil)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, "Part Z9", report.Lines[0].ItemName)
	assert.Equal(t, 1, report.Lines[0].Shortfall)
}

func TestAggregateSortsByCode(t *testing.T) {
	rows := []models.BomGuide{
		{ItemCode: "C", RequiredQuantity: 1},
		{ItemCode: "A", RequiredQuantity: 1},
		{ItemCode: "B", RequiredQuantity: 1},
		{ItemCode: "A", RequiredQuantity: 4},
	}
	assert.Equal(t, []Requirement{
		{ItemCode: "A", RequiredQuantity: 5},
		{ItemCode: "B", RequiredQuantity: 1},
		{ItemCode: "C", RequiredQuantity: 1},
	}, Aggregate(rows))
}

func TestServiceCheckAndDelete(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewService(store)

	for _, r := range guideA() {
		_, err := svc.Create(ctx, CreateRequest{GuideName: r.GuideName, ItemCode: r.ItemCode, RequiredQuantity: r.RequiredQuantity})
		require.NoError(t, err)
	}
	require.NoError(t, store.Inventory().Create(ctx, &models.InventoryItem{Code: "P2", Name: "Rail", Stock: 10}))

	report, err := svc.Check(ctx, "guideA")
	require.NoError(t, err)
	assert.Equal(t, "Part P1", report.Lines[0].ItemName)
	assert.Equal(t, 0, report.Lines[0].CurrentStock)

	reqs, err := svc.Requirements(ctx, "guideA")
	require.NoError(t, err)
	assert.Equal(t, 5, reqs[0].RequiredQuantity)

	_, err = svc.Check(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	require.NoError(t, svc.DeleteGuide(ctx, "guideA"))
	assert.True(t, errors.Is(svc.DeleteGuide(ctx, "guideA"), apperror.ErrNotFound))
}

func TestServiceCreateValidates(t *testing.T) {
	svc := NewService(repository.NewMemoryStore())
	_, err := svc.Create(context.Background(), CreateRequest{GuideName: "g", ItemCode: "P1"})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

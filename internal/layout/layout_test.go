package layout

import (
	"errors"
	"testing"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLocation(t *testing.T) {
	cases := []struct {
		zone, sub, floor string
		want             string
	}{
		{"A구역", "A-1", "1층", "A구역-1-1"},
		{"D구역", "D-2", "3층", "D구역-2-3"},
		{"B구역", "B", "2층", "B구역-1-2"},
		{"C구역", "C-2", "B1", "C구역-2-B1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BuildLocation(tc.zone, tc.sub, tc.floor))
	}
}

func TestDefaultZones(t *testing.T) {
	zones := DefaultZones()
	require.Len(t, zones, 8)
	assert.Equal(t, "A구역", zones[0].ZoneName)
	assert.Equal(t, "A-1", zones[0].SubZoneName)
	assert.Equal(t, "D-2", zones[7].SubZoneName)

	locs := Locations(zones)
	assert.Len(t, locs, 24)
	assert.Contains(t, locs, "C구역-2-3")
}

func TestResolve(t *testing.T) {
	zones := DefaultZones()

	loc, err := Resolve(zones, "B구역", "B-2", "2층")
	require.NoError(t, err)
	assert.Equal(t, "B구역-2-2", loc)

	_, err = Resolve(zones, "Z구역", "Z-1", "1층")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = Resolve(zones, "A구역", "A-1", "9층")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestValidateZone(t *testing.T) {
	existing := DefaultZones()

	err := ValidateZone(models.WarehouseZone{ZoneName: "E구역", SubZoneName: "E-1", Floors: []string{"1층"}}, existing)
	assert.NoError(t, err)

	err = ValidateZone(models.WarehouseZone{ZoneName: "A구역", SubZoneName: "A-1", Floors: []string{"1층"}}, existing)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	err = ValidateZone(models.WarehouseZone{ZoneName: "E구역", SubZoneName: "E-1", Floors: []string{"1층", "1층"}}, existing)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	err = ValidateZone(models.WarehouseZone{ZoneName: "E구역", SubZoneName: "E-1"}, existing)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

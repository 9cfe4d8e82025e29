package layout

import (
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
)

const floorSuffix = "층"

// DefaultZones is the layout seeded into an empty store: four zones, two
// sub-zones each, three floors.
func DefaultZones() []models.WarehouseZone {
	zones := make([]models.WarehouseZone, 0, 8)
	for _, z := range []string{"A", "B", "C", "D"} {
		for _, sub := range []string{"1", "2"} {
			zones = append(zones, models.WarehouseZone{
				ZoneName:    z + "구역",
				SubZoneName: z + "-" + sub,
				Floors:      []string{"1층", "2층", "3층"},
			})
		}
	}
	return zones
}

// BuildLocation encodes a slot as "{zone}-{subZone suffix}-{floor number}",
// e.g. ("A구역", "A-1", "1층") -> "A구역-1-1".
func BuildLocation(zone, subZone, floor string) string {
	suffix := "1"
	if _, after, ok := strings.Cut(subZone, "-"); ok && after != "" {
		suffix = after
	}
	return zone + "-" + suffix + "-" + strings.Replace(floor, floorSuffix, "", 1)
}

// Resolve validates the slot against zones and returns its location string.
func Resolve(zones []models.WarehouseZone, zone, subZone, floor string) (string, error) {
	for _, z := range zones {
		if z.ZoneName != zone || z.SubZoneName != subZone {
			continue
		}
		for _, f := range z.Floors {
			if f == floor {
				return BuildLocation(zone, subZone, floor), nil
			}
		}
		return "", apperror.Validation("unknown floor for sub-zone").
			WithDetail("subZone", subZone).
			WithDetail("floor", floor)
	}
	return "", apperror.Validation("unknown zone or sub-zone").
		WithDetail("zone", zone).
		WithDetail("subZone", subZone)
}

// Locations lists every location string the layout can produce, in layout order.
func Locations(zones []models.WarehouseZone) []string {
	var out []string
	for _, z := range zones {
		for _, f := range z.Floors {
			out = append(out, BuildLocation(z.ZoneName, z.SubZoneName, f))
		}
	}
	return out
}

// ValidateZone checks a zone definition before it is stored.
func ValidateZone(z models.WarehouseZone, existing []models.WarehouseZone) error {
	if strings.TrimSpace(z.ZoneName) == "" || strings.TrimSpace(z.SubZoneName) == "" {
		return apperror.Validation("zoneName and subZoneName are required")
	}
	if len(z.Floors) == 0 {
		return apperror.Validation("at least one floor is required")
	}
	seen := map[string]bool{}
	for _, f := range z.Floors {
		if strings.TrimSpace(f) == "" {
			return apperror.Validation("floor labels must not be empty")
		}
		if seen[f] {
			return apperror.Validation("duplicate floor label").WithDetail("floor", f)
		}
		seen[f] = true
	}
	for _, e := range existing {
		if e.ZoneName == z.ZoneName && e.SubZoneName == z.SubZoneName {
			return apperror.Conflict("sub-zone already exists").WithDetail("subZone", z.SubZoneName)
		}
	}
	return nil
}

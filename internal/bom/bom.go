package bom

import (
	"context"
	"sort"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"
)

type Status string

const (
	StatusSufficient Status = "sufficient"
	StatusShortage   Status = "shortage"
)

// Requirement is the summed quantity of one part within a guide.
type Requirement struct {
	ItemCode         string `json:"itemCode"`
	RequiredQuantity int    `json:"requiredQuantity"`
}

type Line struct {
	ItemCode         string `json:"itemCode"`
	ItemName         string `json:"itemName"`
	RequiredQuantity int    `json:"requiredQuantity"`
	CurrentStock     int    `json:"currentStock"`
	Shortfall        int    `json:"shortfall"`
	Status           Status `json:"status"`
}

type Report struct {
	GuideName  string `json:"guideName"`
	Lines      []Line `json:"lines"`
	Sufficient bool   `json:"sufficient"`
	Shortages  int    `json:"shortages"`
}

// Aggregate sums requiredQuantity per part. Rows repeat a part when a guide was
// imported from several spreadsheet blocks. Output is sorted by code.
func Aggregate(rows []models.BomGuide) []Requirement {
	sums := map[string]int{}
	for _, r := range rows {
		sums[r.ItemCode] += r.RequiredQuantity
	}
	out := make([]Requirement, 0, len(sums))
	for code, qty := range sums {
		out = append(out, Requirement{ItemCode: code, RequiredQuantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out
}

// Check compares the aggregated guide against cross-location stock.
func Check(guideName string, rows []models.BomGuide, inventory []models.InventoryItem) Report {
	stock := map[string]int{}
	names := map[string]string{}
	for _, it := range inventory {
		stock[it.Code] += it.Stock
		if _, ok := names[it.Code]; !ok && it.Name != "" {
			names[it.Code] = it.Name
		}
	}

	report := Report{GuideName: guideName, Lines: []Line{}, Sufficient: true}
	for _, req := range Aggregate(rows) {
		line := Line{
			ItemCode:         req.ItemCode,
			ItemName:         names[req.ItemCode],
			RequiredQuantity: req.RequiredQuantity,
			CurrentStock:     stock[req.ItemCode],
			Status:           StatusSufficient,
		}
		if line.ItemName == "" {
			line.ItemName = "Part " + req.ItemCode
		}
		if line.CurrentStock < line.RequiredQuantity {
			line.Status = StatusShortage
			line.Shortfall = line.RequiredQuantity - line.CurrentStock
			report.Sufficient = false
			report.Shortages++
		}
		report.Lines = append(report.Lines, line)
	}
	return report
}

// Service reads guides and inventory from the store.
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]models.BomGuide, error) {
	return s.store.Bom().List(ctx)
}

func (s *Service) GuideNames(ctx context.Context) ([]string, error) {
	return s.store.Bom().GuideNames(ctx)
}

func (s *Service) Requirements(ctx context.Context, guideName string) ([]Requirement, error) {
	rows, err := s.store.Bom().ListByGuide(ctx, guideName)
	if err != nil {
		return nil, err
	}
	return Aggregate(rows), nil
}

func (s *Service) Check(ctx context.Context, guideName string) (*Report, error) {
	rows, err := s.store.Bom().ListByGuide(ctx, guideName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("BOM guide").WithDetail("guideName", guideName)
	}
	inventory, err := s.store.Inventory().List(ctx)
	if err != nil {
		return nil, err
	}
	report := Check(guideName, rows, inventory)
	return &report, nil
}

type CreateRequest struct {
	GuideName        string `json:"guideName" validate:"required,max=255"`
	ItemCode         string `json:"itemCode" validate:"required,max=64"`
	RequiredQuantity int    `json:"requiredQuantity" validate:"gt=0"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.BomGuide, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	row := &models.BomGuide{
		GuideName:        req.GuideName,
		ItemCode:         req.ItemCode,
		RequiredQuantity: req.RequiredQuantity,
	}
	if err := s.store.Bom().Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) DeleteGuide(ctx context.Context, guideName string) error {
	n, err := s.store.Bom().DeleteByGuide(ctx, guideName)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("BOM guide")
	}
	return nil
}

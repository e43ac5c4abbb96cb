// README: Pricing service computes service quotes from the price matrix with tiered fallback.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pitstop/internal/types"
)

var ErrValidation = errors.New("invalid pricing input")

// MatrixSource provides read-only access to the price matrix.
type MatrixSource interface {
	RowsFor(ctx context.Context, brand, model string, serviceType ServiceType) ([]MatrixRow, error)
	RowsForBrand(ctx context.Context, brand string, serviceType ServiceType) ([]MatrixRow, error)
}

type Request struct {
	Brand       string      `validate:"required"`
	Model       string      `validate:"required"`
	Year        int         `validate:"required,gte=1994"`
	Mileage     int         `validate:"gte=0,lte=500000"`
	ServiceType ServiceType `validate:"required"`
}

type Service struct {
	source   MatrixSource
	validate *validator.Validate
	now      func() time.Time
}

func NewService(source MatrixSource) *Service {
	return &Service{
		source:   source,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Calculate is pure apart from the matrix lookup: same inputs, same quote.
func (s *Service) Calculate(ctx context.Context, req Request) (Quote, error) {
	if err := s.validateRequest(req); err != nil {
		return Quote{}, err
	}

	base, source, interval, err := s.basePrice(ctx, req)
	if err != nil {
		return Quote{}, err
	}

	mult := ageMultiplier(s.now().Year() - req.Year)
	final := int64(math.Round(float64(base) * mult))

	return Quote{
		BasePrice:       types.EUR(base),
		AgeMultiplier:   mult,
		FinalPrice:      types.EUR(final),
		PriceSource:     source,
		MileageInterval: interval,
	}, nil
}

func (s *Service) validateRequest(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s", ErrValidation, strings.ToLower(verrs[0].Field()))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Year > s.now().Year() {
		return fmt.Errorf("%w: field year", ErrValidation)
	}
	if !ValidServiceType(req.ServiceType) {
		return fmt.Errorf("%w: field servicetype", ErrValidation)
	}
	return nil
}

// basePrice resolves the matrix with tiered fallback: exact brand+model+year
// match, then brand average, then the per-service default.
func (s *Service) basePrice(ctx context.Context, req Request) (int64, string, string, error) {
	interval := ""
	if req.ServiceType == ServiceInspection {
		interval = mileageInterval(req.Mileage)
	}

	rows, err := s.source.RowsFor(ctx, req.Brand, req.Model, req.ServiceType)
	if err != nil {
		return 0, "", "", err
	}
	for _, row := range rows {
		if req.Year >= row.YearFrom && req.Year <= row.YearTo {
			return rowPrice(row, req.Mileage), SourceExactMatch, interval, nil
		}
	}

	brandRows, err := s.source.RowsForBrand(ctx, req.Brand, req.ServiceType)
	if err != nil {
		return 0, "", "", err
	}
	if len(brandRows) > 0 {
		var sum int64
		for _, row := range brandRows {
			sum += rowPrice(row, req.Mileage)
		}
		return sum / int64(len(brandRows)), SourceBrandAverage, interval, nil
	}

	return defaultPrices[req.ServiceType], SourceDefault, interval, nil
}

func rowPrice(row MatrixRow, mileage int) int64 {
	if row.ServiceType != ServiceInspection {
		return row.Price
	}
	switch {
	case mileage < 40000:
		return row.TierUnder40
	case mileage < 70000:
		return row.TierUnder70
	case mileage < 100000:
		return row.TierUnder100
	default:
		return row.TierOver100
	}
}

func mileageInterval(mileage int) string {
	switch {
	case mileage < 40000:
		return IntervalUnder40
	case mileage < 70000:
		return IntervalUnder70
	case mileage < 100000:
		return IntervalUnder100
	default:
		return IntervalOver100
	}
}

func ageMultiplier(age int) float64 {
	switch {
	case age > 15:
		return 1.2
	case age > 10:
		return 1.1
	default:
		return 1.0
	}
}

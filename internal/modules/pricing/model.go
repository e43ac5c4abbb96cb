// README: Price matrix rows and quote definitions.
package pricing

import "pitstop/internal/types"

type ServiceType string

const (
	ServiceInspection ServiceType = "inspection"
	ServiceOilChange  ServiceType = "oil_change"
	ServiceBrakes     ServiceType = "brake_service"
	ServiceTires      ServiceType = "tire_service"
	ServiceClimate    ServiceType = "climate_service"
)

func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceInspection, ServiceOilChange, ServiceBrakes, ServiceTires, ServiceClimate:
		return true
	}
	return false
}

// MatrixRow is one reference-data entry: a brand/model/year-range price for a
// service type. Inspection rows carry four mileage-tier prices; every other
// service type uses the single Price column. Amounts are cents.
type MatrixRow struct {
	Brand        string
	Model        string
	YearFrom     int
	YearTo       int
	ServiceType  ServiceType
	Price        int64
	TierUnder40  int64
	TierUnder70  int64
	TierUnder100 int64
	TierOver100  int64
}

// Mileage tier labels for inspection quotes.
const (
	IntervalUnder40  = "under_40k"
	IntervalUnder70  = "under_70k"
	IntervalUnder100 = "under_100k"
	IntervalOver100  = "over_100k"
)

// Quote price sources, most to least specific.
const (
	SourceExactMatch   = "exact_match"
	SourceBrandAverage = "brand_average"
	SourceDefault      = "default"
)

type Quote struct {
	BasePrice       types.Money
	AgeMultiplier   float64
	FinalPrice      types.Money
	PriceSource     string
	MileageInterval string
}

// defaultPrices are the conservative fallbacks for unknown brands, in cents.
var defaultPrices = map[ServiceType]int64{
	ServiceInspection: 34900,
	ServiceOilChange:  19900,
	ServiceBrakes:     29900,
	ServiceTires:      8900,
	ServiceClimate:    14900,
}

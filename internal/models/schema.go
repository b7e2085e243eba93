package models

// Column names of the market dataset.
const (
	ColZone        = "zona"
	ColBuiltArea   = "m2"
	ColBedrooms    = "recamaras"
	ColBathrooms   = "banos"
	ColParking     = "estacionamientos"
	ColSalePrice   = "precio_venta_mxn"
	ColAgeYears    = "antiguedad_anios"
	ColVacancyPct  = "vacancia_pct"
	ColZoneRisk    = "riesgo_zona"
	ColMonthlyRent = "renta_mensual_mxn"
)

// NumericColumns lists every numeric dataset column in schema order.
var NumericColumns = []string{
	ColBuiltArea,
	ColBedrooms,
	ColBathrooms,
	ColParking,
	ColSalePrice,
	ColAgeYears,
	ColVacancyPct,
	ColZoneRisk,
	ColMonthlyRent,
}

// Values returns the numeric columns of the listing in NumericColumns order.
func (l Listing) Values() []float64 {
	return []float64{
		l.BuiltArea,
		l.Bedrooms,
		l.Bathrooms,
		l.Parking,
		l.SalePrice,
		l.AgeYears,
		l.VacancyPct,
		l.ZoneRisk,
		l.MonthlyRent,
	}
}

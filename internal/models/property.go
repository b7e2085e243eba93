package models

// PropertyInput describes the physical and market attributes of the property being screened.
type PropertyInput struct {
	Zone       string  `json:"zone"`
	BuiltArea  float64 `json:"m2"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  int     `json:"bathrooms"`
	Parking    int     `json:"parking"`
	Price      float64 `json:"price"`
	AgeYears   int     `json:"age_years"`
	VacancyPct float64 `json:"vacancy_pct"`
}

// FinancingAssumptions holds the debt and operating assumptions of a deal.
type FinancingAssumptions struct {
	LTVPct        float64 `json:"ltv_pct"`
	AnnualRatePct float64 `json:"annual_rate_pct"`
	TermYears     int     `json:"term_years"`
	OpExPct       float64 `json:"opex_pct"`
}

// Listing is one comparable-property row of the market dataset.
type Listing struct {
	ID          int64   `json:"id,omitempty"`
	Zone        string  `json:"zona"`
	BuiltArea   float64 `json:"m2"`
	Bedrooms    float64 `json:"recamaras"`
	Bathrooms   float64 `json:"banos"`
	Parking     float64 `json:"estacionamientos"`
	SalePrice   float64 `json:"precio_venta_mxn"`
	AgeYears    float64 `json:"antiguedad_anios"`
	VacancyPct  float64 `json:"vacancia_pct"`
	ZoneRisk    float64 `json:"riesgo_zona"`
	MonthlyRent float64 `json:"renta_mensual_mxn"`
}

// MarketStats describes the fitted market context.
type MarketStats struct {
	Listings     int      `json:"listings"`
	Zones        []string `json:"zones"`
	Estimator    string   `json:"estimator"`
	PriceModel   bool     `json:"price_model"`
	Fingerprint  string   `json:"fingerprint"`
	FittedAt     string   `json:"fitted_at"`
	RentHoldout  *Quality `json:"rent_holdout,omitempty"`
	PriceHoldout *Quality `json:"price_holdout,omitempty"`
	AverageRent  float64  `json:"average_rent"`
	AveragePrice float64  `json:"average_price"`
	RentPerSqm   float64  `json:"rent_per_sqm"`
}

// Quality summarises how an estimator performed on held-out rows.
type Quality struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	Rows int     `json:"rows"`
}

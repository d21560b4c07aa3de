package model

import "github.com/sells-group/rentbeacon/pkg/rentcast"

// ProviderRentCast identifies listings sourced from the RentCast API.
const ProviderRentCast = "rentcast"

// Listing is the canonical stored shape of a rental listing. ProviderID is the
// natural key; ID is assigned by the store on insert and never set by callers.
type Listing struct {
	ID         int64  `json:"id"`
	ProviderID string `json:"provider_id"`
	Provider   string `json:"provider"`

	Address      *string `json:"address"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zip_code"`
	County       *string `json:"county"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	PropertyType *string `json:"property_type"`
	Status       *string `json:"status"`

	Price      *int     `json:"price"`
	Bedrooms   *float64 `json:"bedrooms"`
	Bathrooms  *float64 `json:"bathrooms"`
	SquareFeet *int     `json:"square_feet"`
	LotSize    *int     `json:"lot_size"`
	YearBuilt  *int     `json:"year_built"`

	ListedDate   *string `json:"listed_date"`
	RemovedDate  *string `json:"removed_date"`
	CreatedDate  *string `json:"created_date"`
	LastSeenDate *string `json:"last_seen_date"`
	DaysOnMarket *int    `json:"days_on_market"`
}

// Normalize maps a RentCast listing onto the canonical schema. Missing fields
// stay nil; nothing is defaulted or coerced.
func Normalize(raw rentcast.Listing) Listing {
	return Listing{
		ProviderID: raw.ID,
		Provider:   ProviderRentCast,

		Address:      raw.FormattedAddress,
		AddressLine1: raw.AddressLine1,
		AddressLine2: raw.AddressLine2,
		City:         raw.City,
		State:        raw.State,
		ZipCode:      raw.ZipCode,
		County:       raw.County,

		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,

		PropertyType: raw.PropertyType,
		Status:       raw.Status,

		Price:      raw.Price,
		Bedrooms:   raw.Bedrooms,
		Bathrooms:  raw.Bathrooms,
		SquareFeet: raw.SquareFootage,
		LotSize:    raw.LotSize,
		YearBuilt:  raw.YearBuilt,

		ListedDate:   raw.ListedDate,
		RemovedDate:  raw.RemovedDate,
		CreatedDate:  raw.CreatedDate,
		LastSeenDate: raw.LastSeenDate,
		DaysOnMarket: raw.DaysOnMarket,
	}
}

// NormalizeAll maps every raw listing, preserving order.
func NormalizeAll(raws []rentcast.Listing) []Listing {
	out := make([]Listing, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

// Columns returns the mutable column names in storage order. It excludes id
// and provider_id.
func Columns() []string {
	return []string{
		"provider",
		"address", "address_line1", "address_line2", "city", "state", "zip_code", "county",
		"latitude", "longitude",
		"property_type", "status",
		"price", "bedrooms", "bathrooms", "square_feet", "lot_size", "year_built",
		"listed_date", "removed_date", "created_date", "last_seen_date", "days_on_market",
	}
}

// Values returns the mutable column values in the order of Columns.
func (l Listing) Values() []any {
	return []any{
		l.Provider,
		l.Address, l.AddressLine1, l.AddressLine2, l.City, l.State, l.ZipCode, l.County,
		l.Latitude, l.Longitude,
		l.PropertyType, l.Status,
		l.Price, l.Bedrooms, l.Bathrooms, l.SquareFeet, l.LotSize, l.YearBuilt,
		l.ListedDate, l.RemovedDate, l.CreatedDate, l.LastSeenDate, l.DaysOnMarket,
	}
}

// ScanTargets returns pointers for scanning a full row selected as
// id, provider_id followed by Columns.
func (l *Listing) ScanTargets() []any {
	return []any{
		&l.ID, &l.ProviderID,
		&l.Provider,
		&l.Address, &l.AddressLine1, &l.AddressLine2, &l.City, &l.State, &l.ZipCode, &l.County,
		&l.Latitude, &l.Longitude,
		&l.PropertyType, &l.Status,
		&l.Price, &l.Bedrooms, &l.Bathrooms, &l.SquareFeet, &l.LotSize, &l.YearBuilt,
		&l.ListedDate, &l.RemovedDate, &l.CreatedDate, &l.LastSeenDate, &l.DaysOnMarket,
	}
}

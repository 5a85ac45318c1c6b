package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type Equipment struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	EventID   int64           `json:"evenement_id"`
}

func (e Equipment) RecordID() string { return strconv.FormatInt(e.ID, 10) }

// Total is the quantity times the unit price.
func (e Equipment) Total() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type Accommodation struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	CheckIn       Date            `json:"check_in"`
	CheckOut      Date            `json:"check_out"`
	Rooms         int             `json:"rooms"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	EventID       int64           `json:"evenement_id"`
}

func (a Accommodation) RecordID() string { return strconv.FormatInt(a.ID, 10) }

// Nights is the number of nights between check-in and check-out.
func (a Accommodation) Nights() int {
	if a.CheckIn.IsZero() || a.CheckOut.IsZero() || !a.CheckOut.After(a.CheckIn.Time) {
		return 0
	}
	return int(a.CheckOut.Sub(a.CheckIn.Time).Hours() / 24)
}

// Cost is rooms times nights times the nightly price.
func (a Accommodation) Cost() decimal.Decimal {
	return a.PricePerNight.Mul(decimal.NewFromInt(int64(a.Rooms * a.Nights())))
}

type Transport struct {
	ID            int64    `json:"id"`
	Kind          string   `json:"type"`
	From          string   `json:"departure_place"`
	To            string   `json:"arrival_place"`
	DepartureTime DateTime `json:"departure_time"`
	ArrivalTime   DateTime `json:"arrival_time"`
	Seats         int      `json:"seats"`
	EventID       int64    `json:"evenement_id"`
}

func (t Transport) RecordID() string { return strconv.FormatInt(t.ID, 10) }

type Agency struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

func (a Agency) RecordID() string { return strconv.FormatInt(a.ID, 10) }

type Car struct {
	ID        int64           `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Plate     string          `json:"plate"`
	Seats     int             `json:"seats"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	AgencyID  int64           `json:"agency_id,omitempty"`
}

func (c Car) RecordID() string { return strconv.FormatInt(c.ID, 10) }

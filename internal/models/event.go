package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Event is the root of every event-scoped resource; child records point to
// it through evenement_id.
type Event struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	Location    string          `json:"location"`
	Description string          `json:"description,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
}

func (e Event) RecordID() string { return strconv.FormatInt(e.ID, 10) }

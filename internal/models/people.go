package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Account is a dashboard login managed through the upstream auth endpoints.
// Password is only ever sent, never read back.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

func (a Account) RecordID() string { return strconv.FormatInt(a.ID, 10) }

type Staff struct {
	ID           int64           `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	Position     string          `json:"position"`
	DepartmentID int64           `json:"department_id,omitempty"`
	EventID      int64           `json:"evenement_id"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
}

func (s Staff) RecordID() string { return strconv.FormatInt(s.ID, 10) }

func (s Staff) FullName() string { return strings.TrimSpace(s.FirstName + " " + s.LastName) }

type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (c Client) RecordID() string { return strconv.FormatInt(c.ID, 10) }

type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ClientID    int64  `json:"client_id,omitempty"`
}

func (d Department) RecordID() string { return strconv.FormatInt(d.ID, 10) }

type Instructor struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Speciality string `json:"speciality"`
}

func (i Instructor) RecordID() string { return strconv.FormatInt(i.ID, 10) }

func (i Instructor) FullName() string { return strings.TrimSpace(i.FirstName + " " + i.LastName) }

type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LeaderID    int64  `json:"staff_id,omitempty"`
	Description string `json:"description,omitempty"`
	EventID     int64  `json:"evenement_id"`
}

func (t Team) RecordID() string { return strconv.FormatInt(t.ID, 10) }

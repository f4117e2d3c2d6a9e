package budgetsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Categories are the expense categories the API's clients offer.
var Categories = []string{
	"Food", "Transport", "Education", "Loans", "Rent",
	"Entertainment", "Healthcare", "Shopping", "Other",
}

// MonthLayout is the budget month format, e.g. 2025-03.
const MonthLayout = "2006-01"

// Timestamp decodes the API's ISO dates, which may or may not carry a zone
// or fractional seconds, or be null.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

type Expense struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Date     Timestamp `json:"date"`
}

// NewExpense is the body of POST /expenses.
type NewExpense struct {
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Date     Timestamp `json:"date"`
}

func (e NewExpense) Validate() error {
	switch {
	case e.Title == "":
		return invalid("title is required")
	case e.Amount <= 0:
		return invalid("amount must be positive")
	case e.Category == "":
		return invalid("category is required")
	}
	return nil
}

// Budget is the monthly budget. The API answers with a zero amount and an
// empty month when none has been set.
type Budget struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
	Month  string  `json:"month"`
}

type Insights struct {
	Insights  []string `json:"insights"`
	Anomalies []string `json:"anomalies"`
}

type Prediction struct {
	Amount  float64 `json:"prediction"`
	Message string  `json:"message"`
}

type Profile struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

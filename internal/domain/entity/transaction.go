package entity

import "time"

// TransactionCode is the Form 4 transaction code as reported to the SEC.
type TransactionCode string

const (
	CodePurchase    TransactionCode = "P"
	CodeSale        TransactionCode = "S"
	CodeAward       TransactionCode = "A"
	CodeDisposition TransactionCode = "D"
	CodeGift        TransactionCode = "G"
	CodeConversion  TransactionCode = "C"
	CodeWill        TransactionCode = "W"
	CodeExercise    TransactionCode = "M"
	CodeTax         TransactionCode = "F"
)

// InsiderTransaction is one reported insider trade (a Form 4 line item).
type InsiderTransaction struct {
	FilerID         string          `json:"filer_id"`
	FilerName       string          `json:"filer_name"`
	FilerTitle      string          `json:"filer_title,omitempty"`
	IssuerID        string          `json:"issuer_id"`
	Date            time.Time       `json:"date"`
	Code            TransactionCode `json:"code"`
	Shares          float64         `json:"shares"`
	PricePerShare   float64         `json:"price_per_share"`
	TotalValue      float64         `json:"total_value"`
	AccessionNumber string          `json:"accession_number,omitempty"`
	FilingDate      time.Time       `json:"filing_date,omitempty"`
}

// Value returns the transaction's dollar value, deriving it from shares and
// price when the reported total is missing.
func (t InsiderTransaction) Value() float64 {
	if t.TotalValue > 0 {
		return t.TotalValue
	}
	return t.Shares * t.PricePerShare
}

// Day returns the transaction date truncated to midnight UTC, the
// granularity all window math operates at.
func (t InsiderTransaction) Day() time.Time {
	return t.Date.UTC().Truncate(24 * time.Hour)
}

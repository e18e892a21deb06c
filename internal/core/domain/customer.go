package domain

// RiskLevel grades a customer's credit risk.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "BAJO"
	RiskMedium RiskLevel = "MEDIO"
	RiskHigh   RiskLevel = "ALTO"
)

// ClassifyRisk grades a customer: a credit score of 750 or more is low
// risk, 600 or more with a positive balance is medium, anything else high.
func ClassifyRisk(creditScore int, balance float64) RiskLevel {
	switch {
	case creditScore >= 750:
		return RiskLow
	case creditScore >= 600 && balance > 0:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// CustomerStats is the per-customer profile served by the customer directory.
type CustomerStats struct {
	CustomerID     int64     `json:"customer_id"`
	CreditScore    int       `json:"credit_score"`
	Balance        float64   `json:"balance"`
	ProductsNumber int       `json:"products_number"`
	IsActive       bool      `json:"is_active"`
	Risk           RiskLevel `json:"risk_level"`
}

package domain

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// CurrencyUSD is the only currency the service charges in.
const CurrencyUSD = "USD"

// ChargeRequest is one charge attempt against the payment gateway.
type ChargeRequest struct {
	SourceToken    string
	Amount         int64 // minor currency units
	Currency       string
	IdempotencyKey string
}

// NewIdempotencyKey returns 16 random bytes rendered as 32 hex characters.
// A new key is generated for every charge attempt.
func NewIdempotencyKey() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Payment is the payment record returned by the gateway for a successful
// charge. Its fields are defined by the gateway; Record is forwarded to
// callers unchanged.
type Payment struct {
	Record map[string]any
}

// ID returns the gateway payment id, or "" when absent.
func (p *Payment) ID() string {
	return p.stringField("id")
}

// Status returns the gateway payment status, or "" when absent.
func (p *Payment) Status() string {
	return p.stringField("status")
}

// Amount returns the charged amount in minor units and its currency.
// ok is false when the record carries no amount_money.
func (p *Payment) Amount() (amount int64, currency string, ok bool) {
	if p == nil {
		return 0, "", false
	}
	money, isMap := p.Record["amount_money"].(map[string]any)
	if !isMap {
		return 0, "", false
	}
	currency, _ = money["currency"].(string)
	switch v := money["amount"].(type) {
	case float64:
		return int64(v), currency, true
	case int64:
		return v, currency, true
	case int:
		return int64(v), currency, true
	default:
		return 0, currency, false
	}
}

func (p *Payment) stringField(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p.Record[key].(string)
	return s
}

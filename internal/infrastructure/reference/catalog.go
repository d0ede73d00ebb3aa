// Package reference serves the static reference data the scoring rules
// are built against: merchant categories, card issuers, and the
// location risk lists. The catalog is immutable at runtime.
package reference

import (
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

// Catalog is the reference data bundle exposed to API consumers.
type Catalog struct {
	MerchantCategories []transaction.MerchantCategory `json:"merchant_categories"`
	CardIssuers        []values.CardIssuer            `json:"card_issuers"`
	HighRiskRegions    []string                       `json:"high_risk_regions"`
	MediumRiskRegions  []string                       `json:"medium_risk_regions"`
	SupportedCurrency  string                         `json:"supported_currency"`
}

// Provider hands out the catalog.
type Provider struct {
	catalog Catalog
}

// NewProvider builds the static catalog.
func NewProvider() *Provider {
	return &Provider{
		catalog: Catalog{
			MerchantCategories: transaction.Categories(),
			CardIssuers: []values.CardIssuer{
				values.IssuerVisa,
				values.IssuerMastercard,
				values.IssuerAmex,
				values.IssuerDiscover,
				values.IssuerJCB,
				values.IssuerRuPay,
			},
			HighRiskRegions:   []string{"russia", "nigeria", "ghana", "pakistan", "ukraine", "belarus"},
			MediumRiskRegions: []string{"china", "vietnam", "indonesia", "romania", "bulgaria"},
			SupportedCurrency: values.INR,
		},
	}
}

// Catalog returns the reference data. Callers must not mutate it.
func (p *Provider) Catalog() Catalog {
	return p.catalog
}

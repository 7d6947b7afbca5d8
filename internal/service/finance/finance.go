// Package finance serves the loan-scheme catalog and EMI calculations for
// the advisory screens. The catalog is static per release; it still flows
// through the shared cache so the admin invalidation surface covers it.
package finance

import (
	"context"
	"errors"
	"math"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

var (
	ErrInvalidPrincipal = errors.New("finance: principal must be positive")
	ErrInvalidRate      = errors.New("finance: annual rate must be non-negative")
	ErrInvalidTenure    = errors.New("finance: tenure must be at least one month")
)

// Scheme describes a government or bank lending scheme.
type Scheme struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Provider       string  `json:"provider"`
	AnnualRatePct  float64 `json:"annual_rate_pct"`
	MaxAmountINR   float64 `json:"max_amount_inr"`
	MaxTenureMonth int     `json:"max_tenure_months"`
	Collateral     bool    `json:"collateral_required"`
	Description    string  `json:"description"`
}

// EMIQuote is the repayment breakdown for a loan request.
type EMIQuote struct {
	PrincipalINR  float64 `json:"principal_inr"`
	AnnualRatePct float64 `json:"annual_rate_pct"`
	TenureMonths  int     `json:"tenure_months"`
	MonthlyEMIINR float64 `json:"monthly_emi_inr"`
	TotalPayable  float64 `json:"total_payable_inr"`
	TotalInterest float64 `json:"total_interest_inr"`
}

// Service serves scheme listings and EMI quotes.
type Service struct {
	cache *cache.Cache[any]
}

// NewService creates a finance service sharing the advisory cache.
func NewService(c *cache.Cache[any]) *Service {
	return &Service{cache: c}
}

// Schemes returns the lending scheme catalog.
func (s *Service) Schemes(ctx context.Context) ([]Scheme, error) {
	v, err := s.cache.GetOrCompute(ctx, cache.Request{
		Key:      "finance:schemes",
		Category: cache.CategoryAnalytics,
	}, func(ctx context.Context) (any, error) {
		return schemeCatalog(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Scheme), nil
}

// EMI computes the fixed monthly installment for a principal at an annual
// percentage rate over a tenure in months, using the standard amortization
// formula. A zero rate degenerates to straight division.
func (s *Service) EMI(principal, annualRatePct float64, tenureMonths int) (EMIQuote, error) {
	if principal <= 0 || math.IsNaN(principal) || math.IsInf(principal, 0) {
		return EMIQuote{}, ErrInvalidPrincipal
	}
	if annualRatePct < 0 || math.IsNaN(annualRatePct) || math.IsInf(annualRatePct, 0) {
		return EMIQuote{}, ErrInvalidRate
	}
	if tenureMonths < 1 {
		return EMIQuote{}, ErrInvalidTenure
	}

	var emi float64
	if annualRatePct == 0 {
		emi = principal / float64(tenureMonths)
	} else {
		r := annualRatePct / 12 / 100
		pow := math.Pow(1+r, float64(tenureMonths))
		emi = principal * r * pow / (pow - 1)
	}

	emi = math.Round(emi*100) / 100
	total := math.Round(emi*float64(tenureMonths)*100) / 100

	return EMIQuote{
		PrincipalINR:  principal,
		AnnualRatePct: annualRatePct,
		TenureMonths:  tenureMonths,
		MonthlyEMIINR: emi,
		TotalPayable:  total,
		TotalInterest: math.Round((total-principal)*100) / 100,
	}, nil
}

// schemeCatalog is the static catalog shipped with the release.
func schemeCatalog() []Scheme {
	return []Scheme{
		{
			Code:           "KCC",
			Name:           "Kisan Credit Card",
			Provider:       "All scheduled banks",
			AnnualRatePct:  7.0,
			MaxAmountINR:   300000,
			MaxTenureMonth: 60,
			Collateral:     false,
			Description:    "Short-term crop loan with interest subvention; effective 4% on prompt repayment.",
		},
		{
			Code:           "AIF",
			Name:           "Agriculture Infrastructure Fund",
			Provider:       "NABARD",
			AnnualRatePct:  9.0,
			MaxAmountINR:   20000000,
			MaxTenureMonth: 84,
			Collateral:     true,
			Description:    "Medium-term credit for post-harvest infrastructure with 3% interest subvention.",
		},
		{
			Code:           "PMFME",
			Name:           "PM Formalisation of Micro Food Processing",
			Provider:       "State nodal banks",
			AnnualRatePct:  10.5,
			MaxAmountINR:   1000000,
			MaxTenureMonth: 72,
			Collateral:     true,
			Description:    "Credit-linked subsidy of 35% for micro food processing units.",
		},
		{
			Code:           "SHG-BL",
			Name:           "Self Help Group Bank Linkage",
			Provider:       "Regional rural banks",
			AnnualRatePct:  12.0,
			MaxAmountINR:   500000,
			MaxTenureMonth: 36,
			Collateral:     false,
			Description:    "Group lending for smallholders without individual collateral.",
		},
	}
}

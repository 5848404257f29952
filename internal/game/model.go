package game

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	DefaultStartingCash   = 26_000_000.0
	DefaultSaleCapFactor  = 1.07
	DefaultStartWeek      = 1
	DefaultEndWeek        = 14
	DefaultAccrualDivisor = 52.0
)

var (
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrAssetUnavailable  = errors.New("asset is held and off the market")
	ErrInsufficientFunds = errors.New("insufficient cash")
	ErrNoSuchHolding     = errors.New("team does not hold this asset")
	ErrSaleCapExceeded   = errors.New("exit price exceeds this week's sale cap")
	ErrSaleBlocked       = errors.New("sale blocked after a cap violation")
	ErrFinalWeek         = errors.New("already at the final week")
	ErrInvalidTeamName   = errors.New("team name must be 2-32 letters, digits, spaces, _ or -")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTxConflict        = errors.New("transaction conflict, please retry")
)

// Rules are the classroom-variant knobs. Zero value is not usable; start
// from DefaultRules and overlay config on top.
type Rules struct {
	StartingCash       float64 `yaml:"starting_cash" json:"starting_cash"`
	SaleCapFactor      float64 `yaml:"sale_cap_factor" json:"sale_cap_factor"`
	StartWeek          int     `yaml:"start_week" json:"start_week"`
	EndWeek            int     `yaml:"end_week" json:"end_week"`
	AccrueWeeklyIncome bool    `yaml:"accrue_weekly_income" json:"accrue_weekly_income"`
	AccrualDivisor     float64 `yaml:"accrual_divisor" json:"accrual_divisor"`
}

func DefaultRules() Rules {
	return Rules{
		StartingCash:   DefaultStartingCash,
		SaleCapFactor:  DefaultSaleCapFactor,
		StartWeek:      DefaultStartWeek,
		EndWeek:        DefaultEndWeek,
		AccrualDivisor: DefaultAccrualDivisor,
	}
}

func (r Rules) Validate() error {
	if r.StartingCash < 0 {
		return fmt.Errorf("starting cash must be >= 0")
	}
	if r.SaleCapFactor < 1 {
		return fmt.Errorf("sale cap factor must be >= 1")
	}
	if r.EndWeek < r.StartWeek {
		return fmt.Errorf("end week must be >= start week")
	}
	if r.AccrualDivisor <= 0 {
		return fmt.Errorf("accrual divisor must be > 0")
	}
	return nil
}

// CapPrice is the highest exit €/sqm a holding may be sold at this week.
func (r Rules) CapPrice(entryPSM float64) float64 {
	return Round2(entryPSM * r.SaleCapFactor)
}

type Profile string

const (
	ProfileCore     Profile = "Core"
	ProfileCorePlus Profile = "Core+"
	ProfileValueAdd Profile = "Value-Add"
)

var primeLocations = map[string]struct{}{
	"Salamanca": {},
	"Chamberí":  {},
	"Centro":    {},
	"Chamartín": {},
	"Retiro":    {},
	"Moncloa":   {},
	"Barajas":   {},
}

// ClassifyProfile maps an asset to its risk profile: prime locations are
// Core regardless of sector, Logistics elsewhere is Core+, the rest is
// Value-Add.
func ClassifyProfile(location, sector string) Profile {
	if _, ok := primeLocations[location]; ok {
		return ProfileCore
	}
	if sector == "Logistics" {
		return ProfileCorePlus
	}
	return ProfileValueAdd
}

// Factors returns the passing-rent factor on ERV and the vacancy rate
// assumed for the profile.
func (p Profile) Factors() (passingFactor, vacancyPct float64) {
	switch p {
	case ProfileCore:
		return 1.00, 0.04
	case ProfileCorePlus:
		return 0.92, 0.12
	default:
		return 0.85, 0.25
	}
}

// PassingRent derives passing €/sqm/month from ERV for the given asset.
func PassingRent(location, sector string, ervPSM float64) float64 {
	pf, _ := ClassifyProfile(location, sector).Factors()
	return Round2(ervPSM * pf)
}

// Round2 rounds to euro cents. All monetary fields are stored rounded.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var teamNameRE = regexp.MustCompile(`^[a-zA-Z0-9 _-]{2,32}$`)

func ValidateTeamName(name string) error {
	if !teamNameRE.MatchString(strings.TrimSpace(name)) {
		return ErrInvalidTeamName
	}
	return nil
}

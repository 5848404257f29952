package game

// IncomeInputs are the per-asset ROI inputs the income model consumes.
// PassingPSM is monthly; opex and tax are annual per sqm.
type IncomeInputs struct {
	Sqm        int
	PassingPSM float64
	VacancyPct float64
	OpexPSM    float64
	TaxPSM     float64
}

// AnnualNOI computes annual net operating income:
//
//	EGI  = passing × 12 × sqm × (1 − vacancy)
//	NOI  = EGI − opex × sqm − tax × sqm
//
// The result may be negative; it is not floored.
func AnnualNOI(in IncomeInputs) float64 {
	sqm := float64(in.Sqm)
	egi := in.PassingPSM * 12 * sqm * (1 - in.VacancyPct)
	return Round2(egi - in.OpexPSM*sqm - in.TaxPSM*sqm)
}

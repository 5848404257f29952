package game

type WeekView struct {
	Week         int    `json:"week"`
	Announcement string `json:"announcement,omitempty"`
	FinalWeek    bool   `json:"final_week"`
}

type TeamView struct {
	Name    string  `json:"name"`
	CashEUR float64 `json:"cash_eur"`
}

type MarketRow struct {
	AssetID   string  `json:"asset_id"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Location  string  `json:"location"`
	Sqm       int     `json:"sqm"`
	AskPSM    float64 `json:"ask_psm"`
	TicketEUR float64 `json:"ticket_eur"`
	Available bool    `json:"available"`
}

// BookRow is one line of the property book, the full set of ROI inputs
// students use to compute ticket, GPR, effective rent, opex, tax and NOI.
type BookRow struct {
	AssetID    string  `json:"asset_id"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Location   string  `json:"location"`
	Profile    Profile `json:"profile"`
	Sqm        int     `json:"sqm"`
	AskPSM     float64 `json:"ask_psm"`
	ERVPSM     float64 `json:"erv_psm"`
	PassingPSM float64 `json:"passing_psm"`
	VacancyPct float64 `json:"vacancy_pct"`
	OpexPSM    float64 `json:"opex_psm"`
	TaxPSM     float64 `json:"tax_psm"`
	AnnualNOI  float64 `json:"annual_noi"`
}

type HoldingView struct {
	AssetID          string  `json:"asset_id"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	Location         string  `json:"location"`
	Sqm              int     `json:"sqm"`
	EntryPSM         float64 `json:"entry_psm"`
	BuyWeek          int     `json:"buy_week"`
	CapPSM           float64 `json:"cap_psm"`
	AnnualNOI        float64 `json:"annual_noi"`
	BlockedUntilWeek int     `json:"blocked_until_week,omitempty"`
}

type BuyInput struct {
	Team    string
	AssetID string
}

type BuyResult struct {
	AssetID   string  `json:"asset_id"`
	Name      string  `json:"name"`
	Sqm       int     `json:"sqm"`
	EntryPSM  float64 `json:"entry_psm"`
	TicketEUR float64 `json:"ticket_eur"`
	CashEUR   float64 `json:"cash_eur"`
	Week      int     `json:"week"`
}

type SellInput struct {
	Team    string
	AssetID string
	ExitPSM float64
}

type SellResult struct {
	AssetID     string  `json:"asset_id"`
	Name        string  `json:"name"`
	Sqm         int     `json:"sqm"`
	ExitPSM     float64 `json:"exit_psm"`
	CapPSM      float64 `json:"cap_psm"`
	ProceedsEUR float64 `json:"proceeds_eur"`
	CashEUR     float64 `json:"cash_eur"`
	Week        int     `json:"week"`
}

type TeamIncome struct {
	Team      string  `json:"team"`
	AmountEUR float64 `json:"amount_eur"`
}

type AdvanceResult struct {
	Week         int          `json:"week"`
	Announcement string       `json:"announcement,omitempty"`
	ShockApplied bool         `json:"shock_applied"`
	Income       []TeamIncome `json:"income,omitempty"`
}

type LeaderboardRow struct {
	Rank         int     `json:"rank"`
	Team         string  `json:"team"`
	CashEUR      float64 `json:"cash_eur"`
	PortfolioEUR float64 `json:"portfolio_eur"`
	AnnualNOI    float64 `json:"annual_noi"`
	Holdings     int     `json:"holdings"`
}

type TeamOverview struct {
	Team     string        `json:"team"`
	CashEUR  float64       `json:"cash_eur"`
	Holdings []HoldingView `json:"holdings"`
}

package game

// AssetSeed is one row of the fixed Madrid catalog. Rents, opex and tax are
// €/sqm; ERV and passing rent are monthly.
type AssetSeed struct {
	ID       string
	Name     string
	Sector   string
	Location string
	Sqm      int
	AskPSM   float64
	ERVPSM   float64
	OpexPSM  float64
	TaxPSM   float64
}

// assetSeeds is the deterministic 50-asset catalog. The values are part of
// the game design and must not drift; a fresh game always starts from these.
var assetSeeds = []AssetSeed{
	// Residential (12)
	{"A001", "RES-MAD-SALAMAN-01", "Residential", "Salamanca", 4200, 5200.0, 312.0, 31.2, 24.0},
	{"A002", "RES-MAD-CHAMART-02", "Residential", "Chamartín", 3500, 4800.0, 264.0, 24.0, 21.6},
	{"A003", "RES-MAD-CHAMBER-03", "Residential", "Chamberí", 3900, 5400.0, 291.6, 32.4, 27.0},
	{"A004", "RES-MAD-CENTRO-04", "Residential", "Centro", 2800, 5600.0, 308.0, 33.6, 28.0},
	{"A005", "RES-MAD-RETIRO-05", "Residential", "Retiro", 3100, 5000.0, 285.0, 30.0, 25.0},
	{"A006", "RES-MAD-TETUAN-06", "Residential", "Tetuán", 4600, 3900.0, 195.0, 19.5, 15.6},
	{"A007", "RES-MAD-ARGANZ-07", "Residential", "Arganzuela", 5200, 3600.0, 172.8, 18.0, 14.4},
	{"A008", "RES-MAD-MONCLO-08", "Residential", "Moncloa", 2700, 4700.0, 246.8, 23.5, 18.8},
	{"A009", "RES-MAD-LATINA-09", "Residential", "La Latina", 6000, 3400.0, 163.2, 17.0, 13.6},
	{"A010", "RES-MAD-CARABN-10", "Residential", "Carabanchel", 4800, 3200.0, 156.8, 14.4, 12.8},
	{"A011", "RES-MAD-USERA-11", "Residential", "Usera", 4200, 3300.0, 165.0, 14.9, 11.9},
	{"A012", "RES-MAD-VALLEC-12", "Residential", "Vallecas", 3800, 3500.0, 175.0, 15.8, 12.6},

	// Office (12)
	{"A013", "OFF-MAD-SALAMAN-13", "Office", "Salamanca", 7200, 3800.0, 209.0, 27.4, 19.0},
	{"A014", "OFF-MAD-CHAMART-14", "Office", "Chamartín", 6500, 3600.0, 201.6, 25.2, 18.0},
	{"A015", "OFF-MAD-CHAMBER-15", "Office", "Chamberí", 5400, 3400.0, 176.8, 22.1, 15.3},
	{"A016", "OFF-MAD-CENTRO-16", "Office", "Centro", 4800, 4000.0, 220.0, 28.0, 22.0},
	{"A017", "OFF-MAD-RETIRO-17", "Office", "Retiro", 5100, 3500.0, 189.0, 21.9, 17.5},
	{"A018", "OFF-MAD-TETUAN-18", "Office", "Tetuán", 6900, 3000.0, 162.0, 18.0, 14.4},
	{"A019", "OFF-MAD-ARGANZ-19", "Office", "Arganzuela", 5600, 2900.0, 156.6, 17.4, 13.1},
	{"A020", "OFF-MAD-MONCLO-20", "Office", "Moncloa", 4300, 3200.0, 166.4, 20.5, 14.4},
	{"A021", "OFF-MAD-LATINA-21", "Office", "La Latina", 4700, 2800.0, 145.6, 17.4, 12.3},
	{"A022", "OFF-MAD-CARABN-22", "Office", "Carabanchel", 6200, 2600.0, 135.2, 16.1, 11.7},
	{"A023", "OFF-MAD-USERA-23", "Office", "Usera", 5800, 2500.0, 127.5, 15.0, 11.3},
	{"A024", "OFF-MAD-VALLEC-24", "Office", "Vallecas", 5000, 2400.0, 124.8, 14.4, 10.8},

	// Retail (13)
	{"A025", "RET-MAD-SALAMAN-25", "Retail", "Salamanca", 3000, 3300.0, 181.5, 23.1, 16.5},
	{"A026", "RET-MAD-CHAMART-26", "Retail", "Chamartín", 2600, 3200.0, 172.8, 21.1, 16.0},
	{"A027", "RET-MAD-CHAMBER-27", "Retail", "Chamberí", 2400, 3100.0, 167.4, 22.3, 14.9},
	{"A028", "RET-MAD-CENTRO-28", "Retail", "Centro", 2800, 3500.0, 210.0, 24.5, 19.3},
	{"A029", "RET-MAD-RETIRO-29", "Retail", "Retiro", 2200, 2900.0, 159.3, 20.3, 14.5},
	{"A030", "RET-MAD-TETUAN-30", "Retail", "Tetuán", 3600, 2300.0, 115.0, 18.4, 11.5},
	{"A031", "RET-MAD-ARGANZ-31", "Retail", "Arganzuela", 4100, 2000.0, 100.0, 16.0, 10.0},
	{"A032", "RET-MAD-MONCLO-32", "Retail", "Moncloa", 2700, 2700.0, 145.8, 18.9, 13.5},
	{"A033", "RET-MAD-LATINA-33", "Retail", "La Latina", 3900, 2100.0, 105.0, 16.8, 11.0},
	{"A034", "RET-MAD-CARABN-34", "Retail", "Carabanchel", 3200, 2400.0, 122.4, 19.2, 12.0},
	{"A035", "RET-MAD-USERA-35", "Retail", "Usera", 3500, 2200.0, 118.8, 17.6, 11.0},
	{"A036", "RET-MAD-VALLEC-36", "Retail", "Vallecas", 2300, 1800.0, 108.0, 14.4, 9.9},
	{"A037", "RET-MAD-MORATAL-37", "Retail", "Moratalaz", 2500, 2500.0, 137.5, 17.5, 12.5},

	// Logistics (13)
	{"A038", "LOG-MAD-VICLVAR-38", "Logistics", "Vicálvaro", 9000, 2100.0, 115.5, 15.8, 12.6},
	{"A039", "LOG-MAD-SANBLA-39", "Logistics", "San Blas", 11000, 2000.0, 110.0, 15.0, 12.0},
	{"A040", "LOG-MAD-BARAJAS-40", "Logistics", "Barajas", 8000, 2200.0, 121.0, 16.5, 13.2},
	{"A041", "LOG-MAD-VALLEC-41", "Logistics", "Vallecas", 10000, 1800.0, 102.6, 14.4, 10.8},
	{"A042", "LOG-MAD-VILLVER-42", "Logistics", "Villaverde", 9500, 1750.0, 96.3, 14.0, 10.5},
	{"A043", "LOG-MAD-HORTALZ-43", "Logistics", "Hortaleza", 7800, 1950.0, 107.3, 15.6, 11.7},
	{"A044", "LOG-MAD-CIU-LIN-44", "Logistics", "Ciudad Lineal", 8200, 1900.0, 104.5, 15.2, 11.4},
	{"A045", "LOG-MAD-USERA-45", "Logistics", "Usera", 7000, 1700.0, 93.5, 13.6, 10.2},
	{"A046", "LOG-MAD-TETUAN-46", "Logistics", "Tetuán", 7500, 1650.0, 90.8, 13.2, 9.9},
	{"A047", "LOG-MAD-ARGANZ-47", "Logistics", "Arganzuela", 8200, 1600.0, 88.0, 12.8, 9.6},
	{"A048", "LOG-MAD-MONCLO-48", "Logistics", "Moncloa", 8800, 1850.0, 103.7, 14.8, 11.1},
	{"A049", "LOG-MAD-LATINA-49", "Logistics", "La Latina", 9600, 1500.0, 82.5, 12.0, 9.0},
	{"A050", "LOG-MAD-CARABN-50", "Logistics", "Carabanchel", 10400, 1450.0, 78.3, 11.6, 8.7},
}

// curveballs holds the weekly announcement banners. Weeks 2, 4, 6, 7, 9 and
// 12 also carry numeric effects (see applyCurveballTx); the rest are
// informational only.
var curveballs = map[int]string{
	1:  "+25 bps interest rate shock (financing more expensive)",
	2:  "Retail softness: secondary retail ERVs drop",
	3:  "LP mandate: >=20% allocation to Value-Add/Opportunistic by Week 4 (informational)",
	4:  "Bidding war: asking prices +7% pressure (market assets only)",
	5:  "FX wobble: noise only; no direct P&L impact",
	6:  "IBI/tax re-rate: NOI -3% pressure via taxes",
	7:  "Tenant bankruptcy: vacancy risk spikes (effective ERV -20%) for Office & Retail",
	8:  "Bank tightens: Max LTV 55% (if using debt module; informational)",
	9:  "Energy spike: opex +12% pressure",
	10: "PropTech incentive: retention +10% (informational)",
	11: "Benchmarking bonus: top quartile rewarded (informational)",
	12: "Residential demand: ERV growth +2%",
	13: "Green subsidy: 30% rebate on capex (informational)",
	14: "Freeze & score: final valuations",
}

// Announcement returns the curveball banner for a week, or "" when the week
// has none.
func Announcement(week int) string {
	return curveballs[week]
}

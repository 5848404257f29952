package game

import "testing"

func TestClassifyProfile(t *testing.T) {
	cases := []struct {
		name     string
		location string
		sector   string
		want     Profile
	}{
		{"prime residential", "Salamanca", "Residential", ProfileCore},
		{"prime office", "Chamartín", "Office", ProfileCore},
		{"prime logistics stays core", "Barajas", "Logistics", ProfileCore},
		{"secondary logistics", "Vicálvaro", "Logistics", ProfileCorePlus},
		{"secondary residential", "Carabanchel", "Residential", ProfileValueAdd},
		{"secondary retail", "Usera", "Retail", ProfileValueAdd},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyProfile(tc.location, tc.sector); got != tc.want {
				t.Fatalf("ClassifyProfile(%q, %q) = %v, want %v", tc.location, tc.sector, got, tc.want)
			}
		})
	}
}

func TestProfileFactors(t *testing.T) {
	cases := []struct {
		profile Profile
		passing float64
		vacancy float64
	}{
		{ProfileCore, 1.00, 0.04},
		{ProfileCorePlus, 0.92, 0.12},
		{ProfileValueAdd, 0.85, 0.25},
	}
	for _, tc := range cases {
		pf, vac := tc.profile.Factors()
		if pf != tc.passing || vac != tc.vacancy {
			t.Fatalf("%v.Factors() = (%v, %v), want (%v, %v)", tc.profile, pf, vac, tc.passing, tc.vacancy)
		}
	}
}

func TestCapPrice(t *testing.T) {
	rules := DefaultRules()
	if got := rules.CapPrice(5200); got != 5564.00 {
		t.Fatalf("CapPrice(5200) = %v, want 5564.00", got)
	}
	if got := rules.CapPrice(3300); got != 3531.00 {
		t.Fatalf("CapPrice(3300) = %v, want 3531.00", got)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.236, 1.24},
		{-5.678, -5.68},
		{0, 0},
		{24 * 1.03, 24.72},
		{5200 * 1.07, 5564.00},
		{6153840.0 / 52, 118343.08},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateTeamName(t *testing.T) {
	valid := []string{"Alpha", "team 7", "Blue-Sky_2"}
	for _, name := range valid {
		if err := ValidateTeamName(name); err != nil {
			t.Fatalf("ValidateTeamName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", "x", "a/b", "name!with@symbols", "0123456789012345678901234567890123"}
	for _, name := range invalid {
		if err := ValidateTeamName(name); err == nil {
			t.Fatalf("ValidateTeamName(%q) = nil, want error", name)
		}
	}
}

func TestRulesValidate(t *testing.T) {
	good := DefaultRules()
	if err := good.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	bad := DefaultRules()
	bad.SaleCapFactor = 0.9
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for cap factor < 1")
	}
	bad = DefaultRules()
	bad.EndWeek = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for end week before start week")
	}
}

func TestAnnouncements(t *testing.T) {
	for week := 1; week <= 14; week++ {
		if Announcement(week) == "" {
			t.Fatalf("week %d has no announcement", week)
		}
	}
	if Announcement(15) != "" {
		t.Fatal("week 15 should have no announcement")
	}
}

package fakeapi

import (
	"fmt"

	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/fixtures"
)

const createdOnLayout = "2006-01-02T15:04:05Z"

type valuation struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	DealerInfoID    int    `json:"dealer_info_id"`
	ConfigID        int    `json:"config_id"`
	DealerID        string `json:"dealer_id"`
	IsInstantReport bool   `json:"isInstantReport"`
	Username        string `json:"username"`
	CreatedOn       string `json:"createdOn"`
}

// seedValuations returns the stored valuations and the next free id.
func seedValuations() ([]valuation, int) {
	const firstID = 5001
	names := []string{
		"Estimate_14 Apr 2025 09:02:11",
		"Estimate_15 Apr 2025 16:40:03",
		"Quarterly review",
		"Estimate_17 Apr 2025 11:25:48",
		"Estimate_18 Apr 2025 08:12:30",
		"Dealer buyout",
		"Estimate_21 Apr 2025 14:55:09",
		"Estimate_22 Apr 2025 12:15:17",
		"Estimate_22 Apr 2025 17:03:44",
		"Franchise comparison",
		"Estimate_23 Apr 2025 10:31:27",
		"Estimate_24 Apr 2025 13:48:52",
		"Instant report",
	}

	valuations := make([]valuation, 0, len(names)+2)
	for i, name := range names {
		valuations = append(valuations, valuation{
			ID:              firstID + i,
			Name:            name,
			DealerInfoID:    fixtures.DealerInfoID,
			ConfigID:        fixtures.ConfigID,
			DealerID:        fixtures.DealerID,
			IsInstantReport: i%2 == 0,
			Username:        endpoints.DefaultUsername,
			CreatedOn:       fmt.Sprintf("2025-04-%02dT09:00:00Z", 10+i),
		})
	}
	valuations = append(valuations,
		valuation{ID: firstID + len(names), Name: "Estimate_02 May 2025 09:10:00", DealerInfoID: 18802, ConfigID: 1390, DealerID: "47", Username: "anita", CreatedOn: "2025-05-02T09:10:00Z"},
		valuation{ID: firstID + len(names) + 1, Name: "Market check", DealerInfoID: 18802, ConfigID: 1390, DealerID: "47", Username: "anita", CreatedOn: "2025-05-03T15:22:00Z"},
	)
	return valuations, firstID + len(valuations)
}

type weight struct {
	Name     string  `json:"weight_name"`
	Value    float64 `json:"weight_value"`
	MetricID int     `json:"metric_id"`
}

type factor struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	KPIName   string   `json:"kpi__name"`
	TypeName  string   `json:"factortype__name"`
	Active    bool     `json:"active"`
	CreatedOn string   `json:"createdOn"`
	Weight    []weight `json:"weight"`
}

// factors returns the known factors followed by the second page.
func factors() []factor {
	kpis := []string{"Profitability", "F&I", "PVR", "Financials"}
	known := fixtures.Factors()
	extra := []fixtures.Factor{
		{ID: 150, Name: "Inventory Turn"},
		{ID: 151, Name: "Service Absorption"},
		{ID: 152, Name: "Parts Gross"},
		{ID: 153, Name: "CSI Score"},
		{ID: 154, Name: "Days Supply"},
	}

	all := make([]factor, 0, fixtures.FactorTotal)
	for i, f := range append(known, extra...) {
		all = append(all, factor{
			ID:        f.ID,
			Name:      f.Name,
			KPIName:   kpis[i%len(kpis)],
			TypeName:  "Financial",
			Active:    i%3 != 0,
			CreatedOn: fmt.Sprintf("2024-%02d-01T00:00:00Z", i%12+1),
			Weight: []weight{
				{Name: "Low", Value: 0.25, MetricID: 100 + f.ID},
				{Name: "High", Value: 0.75, MetricID: 200 + f.ID},
			},
		})
	}
	return all
}

type document struct {
	Title    string              `json:"Title"`
	Sections map[string][]string `json:"Sections"`
}

func documents() map[string]document {
	return map[string]document{
		endpoints.SectionEULA:    eula(),
		endpoints.SectionPrivacy: {Title: fixtures.PrivacyTitle, Sections: fixtures.PrivacySections()},
		endpoints.SectionTerms:   terms(),
		endpoints.SectionHelp:    help(),
	}
}

func eula() document {
	return document{
		Title: "End user’s Agreement (EULA)",
		Sections: map[string][]string{
			"Introduction": {
				"These Terms and Conditions form a binding agreement between the Customer and Jump IQ, Inc. governing use of the valuation service.",
				"By accessing the service the Customer accepts this agreement.",
			},
			"Definitions": {
				"\"Aggregated Statistics\" means data derived from use of the service that does not identify the Customer.",
				"\"Authorized User\" means an employee or contractor permitted by the Customer to use the service.",
				"\"Customer Data\" means information the Customer submits to the service.",
				"\"Company IP\" means the service, its software and everything derived from it other than Customer Data.",
			},
			"Customer Responsibilities": {
				"The Customer is responsible for all activity of its Authorized Users.",
			},
			"Access and Use": {
				"The Company grants the Customer a non-exclusive, non-transferable right to use the service during the term.",
				"Use restrictions: the Customer shall not copy, modify or reverse engineer the service.",
			},
			"Confidential Information": {
				"Each party keeps the other party's confidential information in confidence.",
			},
			"Intellectual Property Ownership; Feedback": {
				"The Company owns all Company IP. Feedback may be used without restriction.",
			},
			"Disclaimers": {
				"THE SERVICE IS PROVIDED \"AS IS\" AND THE COMPANY DISCLAIMS ALL warranties, EXPRESS OR IMPLIED.",
			},
			"Indemnification": {
				"The Customer indemnifies the Company against claims arising from Customer Data.",
			},
			"Limitations of Liability": {
				"IN NO EVENT WILL THE COMPANY'S AGGREGATE LIABILITY EXCEED USD 100.",
			},
			"Term and Termination": {
				"This agreement continues until terminated by either party on written notice.",
			},
			"Miscellaneous": {
				"This agreement is the entire agreement between the parties.",
			},
		},
	}
}

func terms() document {
	sections := make(map[string][]string, len(fixtures.TermsParagraphs))
	for name, count := range fixtures.TermsParagraphs {
		paragraphs := make([]string, count)
		for i := range paragraphs {
			paragraphs[i] = fmt.Sprintf("%s, clause %d: use of the service is subject to these terms.", name, i+1)
		}
		sections[name] = paragraphs
	}
	return document{Title: fixtures.TermsTitle, Sections: sections}
}

func help() document {
	paragraph := fixtures.HelpPrefix + " adipiscing. " +
		"Neque volutpat elit diam faucibus. Magna sed rhoncus vitae. " +
		"Pulvinar augue sit nisl sed. Massa justo malesuada tellus."
	sections := make(map[string][]string, len(fixtures.HelpSections))
	for _, name := range fixtures.HelpSections {
		sections[name] = []string{paragraph}
	}
	return document{Title: fixtures.HelpTitle, Sections: sections}
}

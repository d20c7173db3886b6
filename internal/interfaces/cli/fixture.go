package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/memory"
)

// Fixture is the on-disk fact format the CLI loads: flat lists of nodes,
// edges, filings, and insider transactions.
type Fixture struct {
	Entities      []entity.Entity             `json:"entities"`
	Relationships []entity.Relationship       `json:"relationships"`
	Filings       []entity.Filing             `json:"filings"`
	Transactions  []entity.InsiderTransaction `json:"transactions"`
}

// Load populates a fresh in-memory store from the fixture. Entities load
// first so relationship normalization can resolve endpoint kinds.
func (f Fixture) Load() *memory.Store {
	s := memory.NewStore()
	for _, e := range f.Entities {
		s.AddEntity(e)
	}
	for _, rel := range f.Relationships {
		s.AddRelationship(rel)
	}
	for _, filing := range f.Filings {
		s.AddFiling(filing)
	}
	for _, tx := range f.Transactions {
		s.AddTransaction(tx)
	}
	return s
}

// LoadFixtureFile reads a fixture JSON file into an in-memory store.
func LoadFixtureFile(path string) (*memory.Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f.Load(), nil
}

func demoPct(v float64) *float64 { return &v }

func demoCitation(filingID, filingType, section string, conf float64) entity.Citation {
	return entity.Citation{
		FilingID:      filingID,
		FilingType:    filingType,
		FilingDate:    time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC),
		FilingURL:     "https://www.sec.gov/Archives/edgar/data/demo/" + filingID,
		SourceSection: section,
		Confidence:    conf,
		Method:        entity.ExtractionRuleBased,
	}
}

// DemoStore builds the built-in demo graph: an issuer, its offshore
// holding company, a director shared between them, and a June 2023
// purchase cluster around an 8-K.
func DemoStore() *memory.Store {
	f := Fixture{
		Entities: []entity.Entity{
			{ID: "veridian", Kind: entity.KindCompany, Name: "Veridian Dynamics Corp", CIK: "0001900001", Ticker: "VRDN"},
			{ID: "palmgrove", Kind: entity.KindCompany, Name: "Palmgrove Holdings Ltd"},
			{ID: "ky", Kind: entity.KindJurisdiction, Name: "Cayman Islands", IsSecrecyJurisdiction: true, SecrecyScore: 76},
			{ID: "hale", Kind: entity.KindPerson, Name: "Marcus Hale"},
			{ID: "addr-gt", Kind: entity.KindAddress, Name: "Ugland House, George Town", EntityCount: 12},
		},
		Relationships: []entity.Relationship{
			{
				From: "palmgrove", To: "veridian", Kind: entity.RelOwns,
				PercentOwned: demoPct(38), Status: entity.StatusActive,
				Citation: demoCitation("0001900001-23-000004", "SC 13D", "Item 4", 0.96),
			},
			{
				From: "hale", To: "veridian", Kind: entity.RelDirectorOf,
				Citation: demoCitation("0001900001-23-000002", "DEF 14A", "Directors", 0.94),
			},
			{
				From: "hale", To: "palmgrove", Kind: entity.RelDirectorOf,
				Citation: demoCitation("0001900001-23-000004", "SC 13D", "Item 2", 0.88),
			},
			{
				From: "palmgrove", To: "ky", Kind: entity.RelIncorporatedIn,
				Citation: demoCitation("0001900001-23-000004", "SC 13D", "Item 2", 0.92),
			},
			{
				From: "palmgrove", To: "addr-gt", Kind: entity.RelRegisteredAt,
				Citation: demoCitation("0001900001-23-000004", "SC 13D", "Item 2", 0.90),
			},
		},
		Filings: []entity.Filing{
			{
				ID:              "fil-veridian-8k",
				AccessionNumber: "0001900001-23-000019",
				FormType:        "8-K",
				FilingDate:      time.Date(2023, 6, 26, 0, 0, 0, 0, time.UTC),
				URL:             "https://www.sec.gov/Archives/edgar/data/demo/0001900001-23-000019",
				CompanyID:       "veridian",
				Items:           []entity.FilingItem{{Number: "1.01"}, {Number: "5.02"}},
				OfficerNames:    []string{"Marcus Hale"},
			},
		},
		Transactions: []entity.InsiderTransaction{
			{
				FilerID: "hale", FilerName: "Marcus Hale", FilerTitle: "Director",
				IssuerID: "veridian", Code: entity.CodePurchase,
				Date:   time.Date(2023, 6, 12, 0, 0, 0, 0, time.UTC),
				Shares: 20000, PricePerShare: 4.85,
			},
			{
				FilerID: "okafor", FilerName: "Adaeze Okafor", FilerTitle: "CFO",
				IssuerID: "veridian", Code: entity.CodePurchase,
				Date:   time.Date(2023, 6, 14, 0, 0, 0, 0, time.UTC),
				Shares: 8500, PricePerShare: 4.91,
			},
			{
				FilerID: "lindqvist", FilerName: "Sara Lindqvist", FilerTitle: "CEO",
				IssuerID: "veridian", Code: entity.CodePurchase,
				Date:   time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC),
				Shares: 31000, PricePerShare: 5.02,
			},
		},
	}
	return f.Load()
}

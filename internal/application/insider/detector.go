// Package insider detects coordinated insider buying and builds the
// insider-activity context used when combining filing and trading
// signals.
package insider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// BuyerDetail aggregates one insider's purchases inside a cluster window.
type BuyerDetail struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	TotalValue float64 `json:"total_value"`
	TradeCount int     `json:"trade_count"`
}

// ClusterDetail is one detected buying cluster: several distinct insiders
// purchasing within one overlapping window.
type ClusterDetail struct {
	CompanyID       string        `json:"company_id"`
	AccessionNumber string        `json:"accession_number"`
	WindowStart     time.Time     `json:"window_start"`
	WindowEnd       time.Time     `json:"window_end"`
	NumBuyers       int           `json:"num_buyers"`
	TotalValue      float64       `json:"total_value"`
	Buyers          []BuyerDetail `json:"buyers"`
}

// Detector scans a company's insider transactions for buying clusters.
// Stateless and safe for concurrent use.
type Detector struct {
	store      graph.FactStore
	logger     logging.Logger
	windowDays int
	minBuyers  int
}

// NewDetector constructs a Detector. logger may be nil; zero config
// fields fall back to the package defaults.
func NewDetector(store graph.FactStore, logger logging.Logger, cfg config.EngineConfig) *Detector {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClusterWindowDays <= 0 {
		cfg.ClusterWindowDays = config.DefaultClusterWindowDays
	}
	if cfg.ClusterMinBuyers <= 0 {
		cfg.ClusterMinBuyers = config.DefaultClusterMinBuyers
	}
	return &Detector{
		store:      store,
		logger:     logger.Named("insider"),
		windowDays: cfg.ClusterWindowDays,
		minBuyers:  cfg.ClusterMinBuyers,
	}
}

// DetectClusters finds every buying cluster among the company's purchase
// transactions. windowDays <= 0 selects the configured default. Windows
// are anchored at the latest purchase and walk backward, so each
// transaction belongs to at most one cluster. Zero-value purchases are
// excluded: they carry no conviction signal.
func (d *Detector) DetectClusters(ctx context.Context, companyID string, windowDays int) ([]ClusterDetail, error) {
	if windowDays <= 0 {
		windowDays = d.windowDays
	}
	txs, err := d.store.TransactionsFor(ctx, companyID, time.Time{})
	if err != nil {
		return nil, err
	}

	var purchases []entity.InsiderTransaction
	for _, tx := range txs {
		if tx.Code == entity.CodePurchase && tx.Value() > 0 {
			purchases = append(purchases, tx)
		}
	}
	// Newest first; the store already orders this way, but the detector
	// must not depend on it.
	sort.SliceStable(purchases, func(i, j int) bool {
		return purchases[i].Date.After(purchases[j].Date)
	})

	window := time.Duration(windowDays) * 24 * time.Hour
	var clusters []ClusterDetail
	for i := 0; i < len(purchases); {
		anchor := purchases[i].Day()
		cutoff := anchor.Add(-window)

		j := i
		for j < len(purchases) && !purchases[j].Day().Before(cutoff) {
			j++
		}
		group := purchases[i:j]
		i = j

		if c, ok := d.buildCluster(companyID, group); ok {
			clusters = append(clusters, c)
		}
	}

	d.logger.Debug("cluster detection complete",
		logging.String("company_id", companyID),
		logging.Int("purchases", len(purchases)),
		logging.Int("clusters", len(clusters)))
	return clusters, nil
}

// buildCluster aggregates a window's purchases per buyer and emits a
// cluster when enough distinct insiders participated.
func (d *Detector) buildCluster(companyID string, group []entity.InsiderTransaction) (ClusterDetail, bool) {
	byFiler := make(map[string]*BuyerDetail)
	var order []string
	var total float64
	start, end := group[0].Day(), group[0].Day()

	for _, tx := range group {
		day := tx.Day()
		if day.Before(start) {
			start = day
		}
		if day.After(end) {
			end = day
		}
		total += tx.Value()

		b, ok := byFiler[tx.FilerID]
		if !ok {
			b = &BuyerDetail{Name: tx.FilerName, Title: tx.FilerTitle}
			byFiler[tx.FilerID] = b
			order = append(order, tx.FilerID)
		}
		b.TotalValue += tx.Value()
		b.TradeCount++
	}

	if len(byFiler) < d.minBuyers {
		return ClusterDetail{}, false
	}

	buyers := make([]BuyerDetail, 0, len(order))
	for _, id := range order {
		buyers = append(buyers, *byFiler[id])
	}
	sort.SliceStable(buyers, func(i, j int) bool {
		return buyers[i].TotalValue > buyers[j].TotalValue
	})

	return ClusterDetail{
		CompanyID:       companyID,
		AccessionNumber: fmt.Sprintf("CLUSTER-%s-%s", companyID, end.Format("2006-01-02")),
		WindowStart:     start,
		WindowEnd:       end,
		NumBuyers:       len(byFiler),
		TotalValue:      total,
		Buyers:          buyers,
	}, true
}

// ContextForFiling summarizes insider trading around a filing's date into
// the combiner's input: net direction over the window, distinct buyer
// count, total traded value, and name matches against the filing's
// extracted officer list.
func (d *Detector) ContextForFiling(ctx context.Context, filing entity.Filing, windowDays int) (signal.InsiderContext, error) {
	if windowDays <= 0 {
		windowDays = d.windowDays
	}
	window := time.Duration(windowDays) * 24 * time.Hour
	since := filing.FilingDate.Add(-window)
	until := filing.FilingDate.Add(window)

	txs, err := d.store.TransactionsFor(ctx, filing.CompanyID, since)
	if err != nil {
		return signal.InsiderContext{}, err
	}
	var inWindow []entity.InsiderTransaction
	for _, tx := range txs {
		if !tx.Date.After(until) {
			inWindow = append(inWindow, tx)
		}
	}

	typed := signal.ClassifyTransactions(inWindow)

	buyers := make(map[string]bool)
	var total float64
	for _, tx := range typed {
		total += tx.Value()
		if tx.Type.Bullish() {
			buyers[tx.FilerID] = true
		}
	}

	return signal.InsiderContext{
		NetDirection:  signal.NetDirection(typed),
		NumBuyers:     len(buyers),
		TotalValue:    total,
		PersonMatches: matchPersons(typed, filing.OfficerNames),
	}, nil
}

// matchPersons cross-references trading insiders against the names
// extracted from a filing. Matching is keyword overlap: both names are
// lowercased, suffixes stripped, and a shared token of four or more
// characters counts as a match.
func matchPersons(txs []signal.TypedTransaction, officerNames []string) []string {
	if len(officerNames) == 0 {
		return nil
	}
	officerKeys := make([][]string, len(officerNames))
	for i, name := range officerNames {
		officerKeys[i] = nameKeywords(name)
	}

	var matches []string
	seen := make(map[string]bool)
	for _, tx := range txs {
		if seen[tx.FilerName] {
			continue
		}
		filerKeys := nameKeywords(tx.FilerName)
		for i, keys := range officerKeys {
			if keywordOverlap(filerKeys, keys) {
				seen[tx.FilerName] = true
				matches = append(matches, officerNames[i])
				break
			}
		}
	}
	sort.Strings(matches)
	return matches
}

// nameSuffixes are generational and honorific tokens dropped before
// comparison.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"mr": true, "mrs": true, "ms": true, "dr": true,
}

func nameKeywords(name string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return ' '
		}
		return r
	}, strings.ToLower(name))

	var keys []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) >= 4 && !nameSuffixes[tok] {
			keys = append(keys, tok)
		}
	}
	return keys
}

func keywordOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

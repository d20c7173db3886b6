package entity

import (
	"fmt"
	"strings"
	"time"
)

// FilingItem is one reported item on a filing, e.g. number "1.01" with name
// "Material Agreement".
type FilingItem struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// Filing is a single SEC filing as indexed by the ingestion pipeline.
type Filing struct {
	ID              string       `json:"id"`
	AccessionNumber string       `json:"accession_number"`
	FormType        string       `json:"form_type"`
	FilingDate      time.Time    `json:"filing_date"`
	URL             string       `json:"url,omitempty"`
	CompanyID       string       `json:"company_id,omitempty"`
	Items           []FilingItem `json:"items,omitempty"`

	// OfficerNames lists persons named in the filing's extracted
	// officer/director sections, used for insider person matching.
	OfficerNames []string `json:"officer_names,omitempty"`
}

// itemNames is the canonical display-name map for the 8-K items the
// classifier cares about.
var itemNames = map[string]string{
	"1.01": "Entry into a Material Definitive Agreement",
	"1.02": "Termination of a Material Definitive Agreement",
	"2.01": "Completion of Acquisition or Disposition of Assets",
	"2.02": "Results of Operations and Financial Condition",
	"3.01": "Notice of Delisting",
	"5.01": "Changes in Control of Registrant",
	"5.02": "Departure or Election of Directors or Officers",
	"5.03": "Amendments to Articles of Incorporation or Bylaws",
	"7.01": "Regulation FD Disclosure",
	"8.01": "Other Events",
	"9.01": "Financial Statements and Exhibits",
}

// ItemName returns the canonical display name for an 8-K item number, or
// "Item <number>" when the number is not in the canonical map.
func ItemName(number string) string {
	if name, ok := itemNames[number]; ok {
		return name
	}
	return fmt.Sprintf("Item %s", number)
}

// ItemNumbers returns the filing's reported item numbers in declaration order.
func (f Filing) ItemNumbers() []string {
	nums := make([]string, 0, len(f.Items))
	for _, it := range f.Items {
		nums = append(nums, it.Number)
	}
	return nums
}

// HasItem reports whether the filing declares the given item number.
func (f Filing) HasItem(number string) bool {
	for _, it := range f.Items {
		if it.Number == number {
			return true
		}
	}
	return false
}

// MentionsIPO reports whether the filing looks like IPO paperwork rather
// than a corporate event: registration form types or item names that talk
// about an initial public offering.
func (f Filing) MentionsIPO() bool {
	form := strings.ToUpper(f.FormType)
	if strings.HasPrefix(form, "S-1") || strings.HasPrefix(form, "424") {
		return true
	}
	for _, it := range f.Items {
		if strings.Contains(strings.ToLower(it.Name), "initial public offering") {
			return true
		}
	}
	return false
}

package models

import "time"

// RawRecord is one CRM lead as retrieved from the record source.
type RawRecord struct {
	ID            string
	Name          string
	Status        string
	OwnerName     string
	LeadSource    string
	Product       string
	State         string
	StateProvince string // Lead_State_Province__c
	Street        string
	CreatedAt     time.Time
}

type LeadSource string

const (
	SourceIndeed             LeadSource = "Indeed"
	SourceGoogleLeadsWebsite LeadSource = "Google Leads - Website"
	SourceWebsite            LeadSource = "Website"
	SourceCustomerReferral   LeadSource = "Customer Referral"
	SourceSelfGenerated      LeadSource = "Self Generated"
	SourceOther              LeadSource = "Other"
)

// AllowedSources are the raw labels kept verbatim; everything else is Other.
var AllowedSources = []LeadSource{
	SourceIndeed,
	SourceGoogleLeadsWebsite,
	SourceWebsite,
	SourceCustomerReferral,
	SourceSelfGenerated,
}

// SourceOrder is the order lead sources are offered in filter options.
var SourceOrder = []LeadSource{
	SourceGoogleLeadsWebsite,
	SourceWebsite,
	SourceCustomerReferral,
	SourceSelfGenerated,
	SourceIndeed,
	SourceOther,
}

// DisplayedSources are the per-state pivot columns.
var DisplayedSources = []LeadSource{
	SourceGoogleLeadsWebsite,
	SourceWebsite,
	SourceIndeed,
	SourceOther,
}

// Lead is a normalized record. StateCode is always resolved and LeadSource
// is always one of AllowedSources or SourceOther. A zero CreatedAt means the
// record had no usable creation date.
type Lead struct {
	ID         string
	Name       string
	OwnerName  string
	Status     string
	Product    string
	LeadSource LeadSource
	StateCode  string
	CreatedAt  time.Time
}

var DisplayColumns = []string{"Id", "Name", "Product__c", "OwnerName", "Status", "LeadSource", "CreatedDate"}

const DisplayDateLayout = "02-Jan-2006"

// DisplayRow returns the lead's cells in DisplayColumns order. An undated
// lead has an empty CreatedDate cell.
func (l Lead) DisplayRow() []string {
	created := ""
	if !l.CreatedAt.IsZero() {
		created = l.CreatedAt.Format(DisplayDateLayout)
	}
	return []string{
		l.ID,
		l.Name,
		l.Product,
		l.OwnerName,
		l.Status,
		string(l.LeadSource),
		created,
	}
}

type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func NewTable(leads []Lead) Table {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, l.DisplayRow())
	}
	return Table{Columns: DisplayColumns, Rows: rows}
}

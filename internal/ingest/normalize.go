package ingest

import (
	"strings"

	"github.com/AngelCh415/leadboard/internal/geo"
	"github.com/AngelCh415/leadboard/internal/models"
)

type Stats struct {
	Fetched  int `json:"fetched"`
	Retained int `json:"retained"`
	Dropped  int `json:"dropped"`
}

// Normalize maps one raw record into a Lead. It reports false when none of
// the location fields name a known state; such records never become leads.
func Normalize(raw models.RawRecord) (models.Lead, bool) {
	code, ok := ResolveState(raw)
	if !ok {
		return models.Lead{}, false
	}
	return models.Lead{
		ID:         raw.ID,
		Name:       raw.Name,
		OwnerName:  raw.OwnerName,
		Status:     raw.Status,
		Product:    raw.Product,
		LeadSource: CanonicalSource(raw.LeadSource),
		StateCode:  code,
		CreatedAt:  raw.CreatedAt,
	}, true
}

// NormalizeAll keeps input order. Retained+Dropped always equals Fetched.
func NormalizeAll(raws []models.RawRecord) ([]models.Lead, Stats) {
	out := make([]models.Lead, 0, len(raws))
	for _, r := range raws {
		if l, ok := Normalize(r); ok {
			out = append(out, l)
		}
	}
	return out, Stats{Fetched: len(raws), Retained: len(out), Dropped: len(raws) - len(out)}
}

// CanonicalSource is an exact, case-sensitive match: "website" is Other.
func CanonicalSource(s string) models.LeadSource {
	for _, allowed := range models.AllowedSources {
		if s == string(allowed) {
			return allowed
		}
	}
	return models.SourceOther
}

// ResolveState checks State, then Lead_State_Province__c, then Street.
func ResolveState(raw models.RawRecord) (string, bool) {
	for _, v := range []string{raw.State, raw.StateProvince, raw.Street} {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if up := strings.ToUpper(v); len(up) == 2 {
			if _, ok := geo.ByCode(up); ok {
				return up, true
			}
		}
		if code, ok := geo.CodeForName(v); ok {
			return code, true
		}
	}
	return "", false
}

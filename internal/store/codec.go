package store

import (
	"encoding/json"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// encodeEnterprise returns nil for a missing enterprise so the column stays NULL.
func encodeEnterprise(e *models.Enterprise) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func normalizeProfile(p *models.Profile) {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.Experience == nil {
		p.Experience = []models.Experience{}
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Nested event fields are stored as JSON columns (JSONB on Postgres, TEXT on SQLite).

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
}

func (a Attendees) Value() (driver.Value, error) {
	if a == nil {
		a = Attendees{}
	}
	return jsonValue([]Attendee(a))
}

func (a *Attendees) Scan(value any) error {
	return scanJSON(value, (*[]Attendee)(a))
}

func (c RoleCatalog) Value() (driver.Value, error) {
	if c == nil {
		c = RoleCatalog{}
	}
	return jsonValue([]RoleCatalogEntry(c))
}

func (c *RoleCatalog) Scan(value any) error {
	return scanJSON(value, (*[]RoleCatalogEntry)(c))
}

func (s CredentialSet) Value() (driver.Value, error) {
	if s == nil {
		s = CredentialSet{}
	}
	return jsonValue([]string(s))
}

func (s *CredentialSet) Scan(value any) error {
	return scanJSON(value, (*[]string)(s))
}

func (s Squads) Value() (driver.Value, error) {
	if s == nil {
		s = Squads{}
	}
	return jsonValue([]Squad(s))
}

func (s *Squads) Scan(value any) error {
	return scanJSON(value, (*[]Squad)(s))
}

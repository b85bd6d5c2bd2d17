/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts a JSON catalog definition into a timesheet.Catalog and a holiday
  list. Hour types, role restrictions and holidays can then change without
  code changes.

JSON SCHEMA:
  {
    "hour_types": ["Work", "Field", "Training", "PTO", "Holiday", "Unpaid"],
    "restricted_roles": {
      "trainee": "Training"
    },
    "holidays": [
      {"date": "2026-01-01", "name": "New Year's Day", "recurring": true},
      {"date": "2026-11-26", "name": "Thanksgiving"}
    ]
  }

KEY FEATURES:
  - Validates role names and that restricted hour types exist in the catalog
  - Defaults to the built-in hour types when "hour_types" is omitted
  - Collects every problem instead of stopping at the first

USAGE:
  f := factory.NewCatalogFactory()
  cfg, err := f.ParseCatalog(data)
  engine := timesheet.NewEngine(store, timesheet.EngineConfig{
      Role:     role,
      Catalog:  cfg.Catalog,
      Calendar: generic.NewStaticHolidayCalendar(cfg.Holidays...),
  })

SEE ALSO:
  - timesheet/catalog.go: Catalog type definition
  - generic/time.go: Holiday, StaticHolidayCalendar
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of a catalog.
type CatalogJSON struct {
	HourTypes       []string          `json:"hour_types,omitempty"`
	RestrictedRoles map[string]string `json:"restricted_roles,omitempty"`
	Holidays        []HolidayJSON     `json:"holidays,omitempty"`
}

// HolidayJSON represents one configured holiday.
type HolidayJSON struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring,omitempty"`
}

// CatalogConfig is the parsed result.
type CatalogConfig struct {
	Catalog  *timesheet.Catalog
	Holidays []generic.Holiday
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts JSON catalogs to Go structs.
type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog parses JSON bytes into a catalog and holiday list.
func (f *CatalogFactory) ParseCatalog(data []byte) (*CatalogConfig, error) {
	var cj CatalogJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// LoadCatalog reads and parses a catalog file.
func (f *CatalogFactory) LoadCatalog(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return f.ParseCatalog(data)
}

// FromJSON converts CatalogJSON to a CatalogConfig.
func (f *CatalogFactory) FromJSON(cj CatalogJSON) (*CatalogConfig, error) {
	var problems []string

	hourTypes := timesheet.DefaultHourTypes
	if len(cj.HourTypes) > 0 {
		hourTypes = nil
		for _, s := range cj.HourTypes {
			s = strings.TrimSpace(s)
			if s == "" {
				problems = append(problems, "hour_types: empty name")
				continue
			}
			hourTypes = append(hourTypes, timesheet.HourType(s))
		}
	}
	known := make(map[timesheet.HourType]bool, len(hourTypes))
	for _, ht := range hourTypes {
		known[ht] = true
	}

	restricted := make(map[timesheet.Role]timesheet.HourType, len(cj.RestrictedRoles))
	for roleName, htName := range cj.RestrictedRoles {
		role, err := timesheet.ParseRole(roleName)
		if err != nil {
			problems = append(problems, "restricted_roles: "+err.Error())
			continue
		}
		ht := timesheet.HourType(strings.TrimSpace(htName))
		if !known[ht] {
			problems = append(problems, fmt.Sprintf("restricted_roles: %s restricted to unknown hour type %q", role, htName))
			continue
		}
		restricted[role] = ht
	}
	if cj.RestrictedRoles == nil {
		for role, ht := range timesheet.DefaultCatalog().Restrictions() {
			if known[ht] {
				restricted[role] = ht
			}
		}
	}

	var holidays []generic.Holiday
	for i, hj := range cj.Holidays {
		h, err := parseHoliday(hj)
		if err != nil {
			problems = append(problems, fmt.Sprintf("holidays[%d]: %v", i, err))
			continue
		}
		holidays = append(holidays, h)
	}

	if len(problems) > 0 {
		return nil, errors.New("invalid catalog: " + strings.Join(problems, "; "))
	}
	return &CatalogConfig{
		Catalog:  timesheet.NewCatalog(hourTypes, restricted),
		Holidays: holidays,
	}, nil
}

func parseHoliday(hj HolidayJSON) (generic.Holiday, error) {
	date, err := generic.ParseDate(hj.Date)
	if err != nil {
		return generic.Holiday{}, err
	}
	name := strings.TrimSpace(hj.Name)
	if name == "" {
		return generic.Holiday{}, errors.New("name is required")
	}
	return generic.Holiday{ID: hj.ID, Date: date, Name: name, Recurring: hj.Recurring}, nil
}

// ToJSON renders a catalog back into its JSON form.
func ToJSON(cfg *CatalogConfig) CatalogJSON {
	cj := CatalogJSON{RestrictedRoles: map[string]string{}}
	for _, ht := range cfg.Catalog.HourTypes() {
		cj.HourTypes = append(cj.HourTypes, string(ht))
	}
	for role, ht := range cfg.Catalog.Restrictions() {
		cj.RestrictedRoles[string(role)] = string(ht)
	}
	for _, h := range cfg.Holidays {
		cj.Holidays = append(cj.Holidays, HolidayJSON{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring})
	}
	return cj
}

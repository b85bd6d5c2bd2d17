package timesheet

// =============================================================================
// CATALOG - Hour types offered per role
// =============================================================================

// Catalog lists the assignable hour types and the roles restricted to a
// single one. It is fixed for the lifetime of a session.
type Catalog struct {
	hourTypes  []HourType
	restricted map[Role]HourType
}

// DefaultHourTypes is the full list offered to unrestricted roles.
var DefaultHourTypes = []HourType{
	HourTypeWork, HourTypeField, HourTypeTraining,
	HourTypePTO, HourTypeHoliday, HourTypeUnpaid,
}

// DefaultCatalog restricts trainees to Training.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultHourTypes, map[Role]HourType{RoleTrainee: HourTypeTraining})
}

// NewCatalog copies its inputs. Duplicate hour types are dropped, keeping the
// first occurrence.
func NewCatalog(hourTypes []HourType, restricted map[Role]HourType) *Catalog {
	c := &Catalog{restricted: make(map[Role]HourType, len(restricted))}
	seen := make(map[HourType]bool, len(hourTypes))
	for _, ht := range hourTypes {
		if ht == "" || seen[ht] {
			continue
		}
		seen[ht] = true
		c.hourTypes = append(c.hourTypes, ht)
	}
	for role, ht := range restricted {
		c.restricted[role] = ht
	}
	return c
}

func (c *Catalog) HourTypes() []HourType {
	return append([]HourType(nil), c.hourTypes...)
}

// IsRestricted reports whether the role is limited to a single hour type.
func (c *Catalog) IsRestricted(role Role) bool {
	_, ok := c.restricted[role]
	return ok
}

// ForRole returns every hour type the role may add, in catalog order.
func (c *Catalog) ForRole(role Role) []HourType {
	if ht, ok := c.restricted[role]; ok {
		return []HourType{ht}
	}
	return c.HourTypes()
}

func (c *Catalog) Allows(role Role, ht HourType) bool {
	for _, h := range c.ForRole(role) {
		if h == ht {
			return true
		}
	}
	return false
}

// Restrictions returns a copy of the role restrictions.
func (c *Catalog) Restrictions() map[Role]HourType {
	out := make(map[Role]HourType, len(c.restricted))
	for role, ht := range c.restricted {
		out[role] = ht
	}
	return out
}

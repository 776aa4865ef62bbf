package cargo

import "math"

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsDirty reports whether a raw row fails any per-row validity check. It is
// the list-view predicate: it does not know about the rest of the batch, so
// duplicate ids are not flagged here.
func (c RawCargo) IsDirty() bool {
	if c.Status == nil || !c.Status.Valid() {
		return true
	}
	if !c.Category.Valid() {
		return true
	}
	if !IsFinite(c.Price) || c.Price < 0 {
		return true
	}
	if c.Kg == nil || !IsFinite(*c.Kg) {
		return true
	}
	return !IsUUIDv4(c.ID)
}

// CountDirty returns how many rows IsDirty flags.
func CountDirty(rows []RawCargo) int {
	n := 0
	for i := range rows {
		if rows[i].IsDirty() {
			n++
		}
	}
	return n
}

package schedule

// Conflicts reports whether two parsed slots clash: they share at least
// one day and their time ranges overlap. Ranges that merely touch at a
// boundary (one ends exactly when the other starts) do not clash, so
// back-to-back sections like 11:00-12:00 and 12:00-13:00 are fine.
//
// A nil slot carries no schedule information and never conflicts; the
// permissive default means ambiguous data never blocks a registration.
func Conflicts(a, b *Slot) bool {
	if a == nil || b == nil {
		return false
	}
	if !shareDay(a.Days, b.Days) {
		return false
	}

	overlaps := a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
	touching := a.EndMinute == b.StartMinute || b.EndMinute == a.StartMinute

	return overlaps && !touching
}

func shareDay(a, b []string) bool {
	for _, da := range a {
		for _, db := range b {
			if da == db {
				return true
			}
		}
	}
	return false
}

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		days  []string
		start int
		end   int
	}{
		{"single day", "Mon 10:00-11:30", []string{"Mon"}, 600, 690},
		{"multiple days", "Mon/Wed/Fri 9:00-10:00", []string{"Mon", "Wed", "Fri"}, 540, 600},
		{"full day names", "Monday/Wednesday 14:00-15:30", []string{"Mon", "Wed"}, 840, 930},
		{"mixed case", "mOn/TUE 8:05-9:00", []string{"Mon", "Tue"}, 485, 540},
		{"day list with internal space", "Mon / Wed 10:00-11:00", []string{"Mon", "Wed"}, 600, 660},
		{"surrounding whitespace", "  Thu 23:00-23:59  ", []string{"Thu"}, 1380, 1439},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := ParseSlot(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.days, slot.Days)
			assert.Equal(t, tt.start, slot.StartMinute)
			assert.Equal(t, tt.end, slot.EndMinute)
		})
	}
}

func TestParseSlotDropsUnknownDayTokens(t *testing.T) {
	slot, ok := ParseSlot("Mon/Xyz/Fri 10:00-11:00")
	require.True(t, ok)
	assert.Equal(t, []string{"Mon", "Fri"}, slot.Days)
}

func TestParseSlotInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only days", "Mon/Wed"},
		{"no valid days", "Xyz/Abc 10:00-11:00"},
		{"missing dash", "Mon 10:00"},
		{"too many dashes", "Mon 10:00-11:00-12:00"},
		{"hour out of range", "Mon 24:00-25:00"},
		{"minute out of range", "Mon 10:61-11:00"},
		{"non numeric", "Mon ab:cd-11:00"},
		{"single digit minutes", "Mon 10:0-11:00"},
		{"zero length range", "Mon 10:00-10:00"},
		{"inverted range", "Mon 12:00-10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := ParseSlot(tt.input)
			assert.False(t, ok)
			assert.Nil(t, slot)
		})
	}
}

func TestParseSlotIdempotent(t *testing.T) {
	first, ok := ParseSlot("Tue/Thu 11:00-12:15")
	require.True(t, ok)
	second, ok := ParseSlot("Tue/Thu 11:00-12:15")
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestIsUnscheduled(t *testing.T) {
	assert.True(t, IsUnscheduled(""))
	assert.True(t, IsUnscheduled("   "))
	assert.True(t, IsUnscheduled("TBA"))
	assert.True(t, IsUnscheduled("tba"))
	assert.False(t, IsUnscheduled("Mon 10:00-11:00"))
}

package planning

import (
	"strings"
	"time"
)

// portalDateLayout matches the portal's "weekday day month year" rendering,
// e.g. "Mon 03 Jun 2024".
const portalDateLayout = "Mon 02 Jan 2006"

// NormalizeLabel converts a table row label into its record field name:
// trimmed, lower-cased, spaces replaced with underscores.
func NormalizeLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// ParseDate converts a portal date value into an ISO calendar date. A value
// that does not match the portal layout (including the empty string) yields
// nil, which persists as an absent value rather than failing the record.
func ParseDate(value string) *string {
	t, err := time.Parse(portalDateLayout, strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	iso := t.Format("2006-01-02")
	return &iso
}

package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// nullString returns s, or NULL unless ok.
func nullString(s string, ok bool) sql.NullString {
	return sql.NullString{String: s, Valid: ok}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

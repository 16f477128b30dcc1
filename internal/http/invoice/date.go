package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// date accepts either a calendar date ("2006-01-02") or an RFC 3339
// timestamp and always renders as a calendar date.
type date time.Time

func (d *date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = date(t)
			return nil
		}
	}

	return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(time.DateOnly))
}

func (d date) Time() time.Time {
	return time.Time(d)
}

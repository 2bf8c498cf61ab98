package db

import "time"

// TimeFormat formats t as RFC3339 in UTC. Sub-second precision is kept when
// present so that visits recorded within the same second stay distinguishable.
func TimeFormat(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// TimeParse parses an RFC3339 string. An empty string yields the zero time.
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

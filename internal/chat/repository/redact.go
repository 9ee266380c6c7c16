package repository

import (
	"net/url"
)

var secretQueryParams = []string{"token", "apiKey", "apikey", "x_cg_demo_api_key", "key"}

// redactURL hides credentials carried in query strings before the URL is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range secretQueryParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

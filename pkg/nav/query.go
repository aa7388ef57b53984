package nav

import (
	"net/url"
	"strings"
)

// EncodeQuery renders q in canonical form: keys sorted, values
// percent-encoded. One cosmetic exception: encoded commas inside values
// are restored to literal commas, so comma-joined list parameters stay
// readable when a URL is copied and shared.
func EncodeQuery(q url.Values) string {
	return strings.ReplaceAll(q.Encode(), "%2C", ",")
}

// ParseQuery parses a raw query string leniently. Pairs that fail
// percent-decoding are dropped while every well-formed pair is kept: a
// malformed shared link must never take the whole query down. Bad values
// inside well-formed pairs are the sync engine's problem, not the parser's.
func ParseQuery(raw string) url.Values {
	q, _ := url.ParseQuery(raw)
	if q == nil {
		q = url.Values{}
	}
	return q
}

// CloneQuery returns a deep copy of q. A nil input yields an empty,
// non-nil result so callers can mutate it directly.
func CloneQuery(q url.Values) url.Values {
	clone := make(url.Values, len(q))
	for k, vs := range q {
		cvs := make([]string, len(vs))
		copy(cvs, vs)
		clone[k] = cvs
	}
	return clone
}

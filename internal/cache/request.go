package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// Result formats the upstream API understands. Anything else normalizes to
// absent rather than being forwarded blindly.
const (
	FormatCompact = "compact"
	FormatFull    = "full"
	FormatIDs     = "ids"
)

// includeFields is the allow-set for the comma-separated include list.
var includeFields = []string{
	"boxart",
	"platform",
	"genres",
	"publishers",
	"developers",
	"screenshots",
	"alternates",
}

// Request is a normalized upstream query. Build one with ParseRequest; the
// zero value of every optional field means "absent".
type Request struct {
	Query    string
	Platform string
	Limit    int
	Offset   int
	ID       int
	Genre    string
	Group    string
	Format   string
	Include  string
}

// ParseRequest normalizes raw query parameters: text fields are trimmed and
// lowercased (the upstream API is case-insensitive), numeric fields parse to
// absent unless they are positive integers, and the include list is filtered
// to the known field names preserving first-seen order.
func ParseRequest(vals url.Values) Request {
	return Request{
		Query:    strings.ToLower(strings.TrimSpace(vals.Get("q"))),
		Platform: strings.ToLower(strings.TrimSpace(vals.Get("platform"))),
		Limit:    parsePositive(vals.Get("limit")),
		Offset:   parsePositive(vals.Get("offset")),
		ID:       parsePositive(vals.Get("id")),
		Genre:    strings.ToLower(strings.TrimSpace(vals.Get("genre"))),
		Group:    strings.ToLower(strings.TrimSpace(vals.Get("group"))),
		Format:   normalizeFormat(vals.Get("format")),
		Include:  normalizeInclude(vals.Get("include")),
	}
}

// Cacheable reports whether the request may be keyed at all. Free-text
// queries shorter than two characters produce too many distinct, low-value
// keys, so the orchestrator bypasses the cache for them entirely.
func (r Request) Cacheable() bool {
	return len([]rune(r.Query)) >= 2
}

// Key derives the cache key as a sha256 hex digest of the canonical
// serialization. Equivalent requests (case, absent-vs-default) share a key.
func (r Request) Key() string {
	sum := sha256.Sum256([]byte(r.canonical()))
	return hex.EncodeToString(sum[:])
}

// canonical serializes the request with a pinned field order. The order is
// part of the on-disk key format: reordering fields here invalidates every
// stored row.
func (r Request) canonical() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(r.Query)
	b.WriteString("|platform=")
	b.WriteString(r.Platform)
	b.WriteString("|limit=")
	b.WriteString(formatOptionalInt(r.Limit))
	b.WriteString("|offset=")
	b.WriteString(formatOptionalInt(r.Offset))
	b.WriteString("|id=")
	b.WriteString(formatOptionalInt(r.ID))
	b.WriteString("|genre=")
	b.WriteString(r.Genre)
	b.WriteString("|group=")
	b.WriteString(r.Group)
	b.WriteString("|format=")
	b.WriteString(r.Format)
	b.WriteString("|include=")
	b.WriteString(r.Include)
	return b.String()
}

// Values renders the request back into upstream query parameters, omitting
// absent fields.
func (r Request) Values() url.Values {
	vals := url.Values{}
	if r.Query != "" {
		vals.Set("q", r.Query)
	}
	if r.Platform != "" {
		vals.Set("platform", r.Platform)
	}
	if r.Limit > 0 {
		vals.Set("limit", strconv.Itoa(r.Limit))
	}
	if r.Offset > 0 {
		vals.Set("offset", strconv.Itoa(r.Offset))
	}
	if r.ID > 0 {
		vals.Set("id", strconv.Itoa(r.ID))
	}
	if r.Genre != "" {
		vals.Set("genre", r.Genre)
	}
	if r.Group != "" {
		vals.Set("group", r.Group)
	}
	if r.Format != "" {
		vals.Set("format", r.Format)
	}
	if r.Include != "" {
		vals.Set("include", r.Include)
	}
	return vals
}

func parsePositive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func normalizeFormat(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatCompact:
		return FormatCompact
	case FormatFull:
		return FormatFull
	case FormatIDs:
		return FormatIDs
	default:
		return ""
	}
}

func normalizeInclude(s string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, part := range strings.Split(s, ",") {
		field := strings.ToLower(strings.TrimSpace(part))
		if field == "" || seen[field] {
			continue
		}
		if !allowedInclude(field) {
			continue
		}
		seen[field] = true
		kept = append(kept, field)
	}
	return strings.Join(kept, ",")
}

func allowedInclude(field string) bool {
	for _, f := range includeFields {
		if f == field {
			return true
		}
	}
	return false
}

func formatOptionalInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

package scan

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"forum_search_backend/platform/apperr"
)

// ErrInvalidQuery is returned for an empty or whitespace-only term.
var ErrInvalidQuery = errors.New("search term is required")

var (
	categoryScopePattern = regexp.MustCompile(`category:(\d+)`)
	bareScopePattern     = regexp.MustCompile(`^\d+$`)
)

// Scope narrows the scanned topics. The zero value means no restriction.
type Scope struct {
	CategoryID int64
}

// IsSet reports whether the scope restricts the scan.
func (s Scope) IsSet() bool {
	return s.CategoryID > 0
}

// Query is a normalized search request.
type Query struct {
	Term  string
	Scope Scope
}

// NewQuery trims and lower-cases term and parses the raw scope. Only a
// blank term is rejected.
func NewQuery(term, rawScope string) (Query, error) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return Query{}, invalidQuery()
	}
	return Query{Term: normalized, Scope: ParseScope(rawScope)}, nil
}

// ParseScope reads "category:N" or "N". Anything else, including an empty
// value, yields the zero Scope so the scan runs across every category.
func ParseScope(raw string) Scope {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Scope{}
	}

	digits := ""
	if m := categoryScopePattern.FindStringSubmatch(raw); m != nil {
		digits = m[1]
	} else if bareScopePattern.MatchString(raw) {
		digits = raw
	}
	if digits == "" {
		return Scope{}
	}

	cid, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Scope{}
	}
	return Scope{CategoryID: cid}
}

func invalidQuery() error {
	return apperr.Wrap(apperr.KindValidation, ErrInvalidQuery.Error(), ErrInvalidQuery)
}

package query

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/starford/recents/internal/models"
)

// matcher decides whether an item belongs to a query's result set.
type matcher func(models.RecentItem) bool

// isWildcard reports whether q uses '*' or '?' wildcards.
func isWildcard(q string) bool {
	return strings.ContainsAny(q, "*?")
}

// newMatcher builds the matcher for q. A blank query matches everything. A
// query with wildcards must match the whole display name or target path;
// any other query is a substring search over both, taken as typed including
// surrounding spaces. Matching ignores case.
func newMatcher(q string) matcher {
	if strings.TrimSpace(q) == "" {
		return func(models.RecentItem) bool { return true }
	}
	q = strings.ToLower(q)
	if isWildcard(q) {
		if g, err := glob.Compile(wildcardPattern(q)); err == nil {
			return func(it models.RecentItem) bool {
				return g.Match(strings.ToLower(it.DisplayName)) || g.Match(strings.ToLower(it.TargetPath))
			}
		}
	}
	return func(it models.RecentItem) bool {
		return strings.Contains(strings.ToLower(it.DisplayName), q) ||
			strings.Contains(strings.ToLower(it.TargetPath), q)
	}
}

// wildcardPattern quotes everything but '*' and '?' so path separators and
// brackets in q are taken literally.
func wildcardPattern(q string) string {
	var b strings.Builder
	for _, r := range q {
		switch r {
		case '*', '?':
			b.WriteRune(r)
		default:
			b.WriteString(glob.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

func filter(s models.Snapshot, q string) models.Snapshot {
	match := newMatcher(q)
	out := make(models.Snapshot, 0, len(s))
	for _, it := range s {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

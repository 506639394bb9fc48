package scrape

import (
	"regexp"
	"sort"
	"strconv"
)

// keyPattern matches the two integer groups embedded in discussion URLs,
// e.g. ".../exam-foo-topic-3-question-41-discussion/".
var keyPattern = regexp.MustCompile(`topic-(\d+)-question-(\d+)`)

// ResolveKey parses a discussion URL into its ordering key. The second
// return is false when the URL does not follow the expected pattern; such
// links are filtered out by the caller, this is not an error condition.
// ResolveKey is pure: no I/O, no side effects.
func ResolveKey(rawURL string) (Key, bool) {
	m := keyPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return Key{}, false
	}
	topic, err := strconv.Atoi(m[1])
	if err != nil {
		return Key{}, false
	}
	question, err := strconv.Atoi(m[2])
	if err != nil {
		return Key{}, false
	}
	return Key{Topic: topic, Question: question}, true
}

// KeyLinks resolves and keys a set of URLs, dropping any that do not match
// the discussion pattern. Deduplication happens upstream by URL identity, so
// two distinct URLs may still share a key; both are kept.
func KeyLinks(urls []string) []LinkItem {
	items := make([]LinkItem, 0, len(urls))
	for _, u := range urls {
		key, ok := ResolveKey(u)
		if !ok {
			continue
		}
		items = append(items, LinkItem{Key: key, Link: u})
	}
	return items
}

// SortItems orders items ascending by (topic, question). The sort is stable
// so duplicate-keyed links keep their relative discovery order.
func SortItems(items []LinkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Key.Less(items[j].Key)
	})
}

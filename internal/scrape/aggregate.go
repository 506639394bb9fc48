package scrape

import "sort"

// ResultSet maps a topic id to its question records, sorted ascending by
// question number. The map itself carries no topic ordering; consumers
// iterate Topics().
type ResultSet map[int][]QuestionRecord

// Aggregate groups records by topic and sorts each group by question
// number. The sort is stable so duplicate-keyed records (distinct URLs that
// resolved to the same key) are all kept, in completion-independent order.
func Aggregate(records []QuestionRecord) ResultSet {
	set := make(ResultSet)
	for _, rec := range records {
		set[rec.Key.Topic] = append(set[rec.Key.Topic], rec)
	}
	for topic := range set {
		group := set[topic]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Key.Question < group[j].Key.Question
		})
	}
	return set
}

// Topics returns the topic ids in ascending numeric order.
func (rs ResultSet) Topics() []int {
	topics := make([]int, 0, len(rs))
	for topic := range rs {
		topics = append(topics, topic)
	}
	sort.Ints(topics)
	return topics
}

// Len returns the total record count across all topics.
func (rs ResultSet) Len() int {
	n := 0
	for _, group := range rs {
		n += len(group)
	}
	return n
}

package services

import (
	"sort"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
)

// FeelingOptions is the emoji set offered by the entry form. Stored entries
// are not validated against it.
var FeelingOptions = []string{"😀", "😢", "😡", "😱", "🥰", "😴", "🤔", "😇", "😎", "😭", "🥳", "😤"}

// FeelingShare is one row of a ranked feeling distribution
type FeelingShare struct {
	Feeling string  `json:"feeling"`
	Percent float64 `json:"percent"`
}

// FeelingPercentages returns, for each distinct feeling, the share of
// entries carrying it as a percentage in [0, 100].
func FeelingPercentages(entries []models.Entry) map[string]float64 {
	result := make(map[string]float64)
	if len(entries) == 0 {
		return result
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Feeling]++
	}

	total := float64(len(entries))
	for feeling, count := range counts {
		result[feeling] = float64(count) / total * 100
	}
	return result
}

// RankFeelings orders a distribution by percent descending, ties by feeling.
func RankFeelings(stats map[string]float64) []FeelingShare {
	ranked := make([]FeelingShare, 0, len(stats))
	for feeling, percent := range stats {
		ranked = append(ranked, FeelingShare{Feeling: feeling, Percent: percent})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Percent != ranked[j].Percent {
			return ranked[i].Percent > ranked[j].Percent
		}
		return ranked[i].Feeling < ranked[j].Feeling
	})
	return ranked
}

// RecentEntries returns at most n entries from the front of the list.
func RecentEntries(entries []models.Entry, n int) []models.Entry {
	if n <= 0 {
		return []models.Entry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]models.Entry, n)
	copy(out, entries[:n])
	return out
}

// EntriesOnDay keeps the entries created on the same calendar day as day,
// both evaluated in loc. Order is preserved.
func EntriesOnDay(entries []models.Entry, day time.Time, loc *time.Location) []models.Entry {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()

	out := make([]models.Entry, 0)
	for _, e := range entries {
		ey, em, ed := e.CreatedAt.In(loc).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}

package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFeelings(feelings ...string) []models.Entry {
	out := make([]models.Entry, len(feelings))
	for i, f := range feelings {
		out[i] = models.Entry{Feeling: f}
	}
	return out
}

func TestFeelingPercentages_Empty(t *testing.T) {
	stats := FeelingPercentages(nil)

	require.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestFeelingPercentages_Single(t *testing.T) {
	assert.Equal(t, map[string]float64{"😀": 100}, FeelingPercentages(withFeelings("😀")))
}

func TestFeelingPercentages_Split(t *testing.T) {
	stats := FeelingPercentages(withFeelings("A", "A", "B"))

	require.Len(t, stats, 2)
	assert.InDelta(t, 66.6667, stats["A"], 0.001)
	assert.InDelta(t, 33.3333, stats["B"], 0.001)
}

func TestFeelingPercentages_SumsToHundred(t *testing.T) {
	stats := FeelingPercentages(withFeelings("😀", "😢", "😡", "😀", "🥳", "😢", "😀"))

	var sum float64
	for _, p := range stats {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
		sum += p
	}
	assert.InDelta(t, 100, sum, 1e-9)
}

func TestFeelingPercentages_UnknownFeelingCounted(t *testing.T) {
	stats := FeelingPercentages(withFeelings("meh", "😀"))

	assert.InDelta(t, 50, stats["meh"], 1e-9)
}

func TestRankFeelings(t *testing.T) {
	ranked := RankFeelings(map[string]float64{"B": 25, "A": 25, "C": 50})

	assert.Equal(t, []FeelingShare{
		{Feeling: "C", Percent: 50},
		{Feeling: "A", Percent: 25},
		{Feeling: "B", Percent: 25},
	}, ranked)
	assert.Empty(t, RankFeelings(nil))
}

func TestRecentEntries(t *testing.T) {
	entries := []models.Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	recent := RecentEntries(entries, 2)
	assert.Equal(t, []models.Entry{{ID: "a"}, {ID: "b"}}, recent)

	recent[0].ID = "changed"
	assert.Equal(t, "a", entries[0].ID)

	assert.Len(t, RecentEntries(entries, 10), 3)
	assert.Empty(t, RecentEntries(entries, 0))
}

func TestEntriesOnDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	entries := []models.Entry{
		{ID: "late", CreatedAt: time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)},
		{ID: "noon", CreatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		{ID: "prev", CreatedAt: time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)},
	}
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	ids := func(list []models.Entry) []string {
		out := []string{}
		for _, e := range list {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"late", "noon"}, ids(EntriesOnDay(entries, day, nil)))

	// 23:30 UTC is already the 11th in Berlin; 22:00 UTC on the 9th is the 9th.
	berlinDay := time.Date(2024, 3, 10, 0, 0, 0, 0, berlin)
	assert.Equal(t, []string{"noon"}, ids(EntriesOnDay(entries, berlinDay, berlin)))
}

package gdelt

import (
	"encoding/csv"
	"math/rand"
	"strconv"
	"strings"
)

// Tone fallback distribution. Articles arriving without a parseable tone get
// a synthetic draw instead of being rejected; downstream consumers cannot
// tell the two apart (kept for output parity with the source feed).
const (
	FallbackToneMean   = -5.0
	FallbackToneStddev = 2.0
)

// Article is one normalized row of a GDELT article list response, before
// surrogate ID and country tagging.
type Article struct {
	Day  string // 8-digit YYYYMMDD
	URL  string
	Tone float64
}

// ParseStats counts row dispositions for one parsed response.
type ParseStats struct {
	Accepted       int
	SkippedBadDate int
	SkippedNoURL   int
	ToneFallbacks  int
}

// FallbackTone draws a synthetic tone from Normal(-5, 2).
func FallbackTone(rng *rand.Rand) float64 {
	return rng.NormFloat64()*FallbackToneStddev + FallbackToneMean
}

// LooksLikeArticleCSV reports whether a response body resembles an article
// list. The API returns HTML error pages and empty bodies with status 200.
func LooksLikeArticleCSV(text string) bool {
	return strings.Contains(text, "Date") || strings.Contains(text, "SQLDATE")
}

// CleanDay reduces a noisy date field to its leading 8 digits (YYYYMMDD).
// All non-digit characters are discarded first, so "2023-10-19T08:00" and
// "20231019T080000Z" both clean to "20231019". Returns false when fewer
// than 8 digits remain.
func CleanDay(raw string) (string, bool) {
	var digits strings.Builder
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
			if digits.Len() == 8 {
				return digits.String(), true
			}
		}
	}
	return "", false
}

// ParseArticleList normalizes an article list CSV response into flat
// articles. Rows with no parseable 8-digit date or an empty URL are
// dropped; rows with an unparseable tone get a draw from fallbackTone.
// Header names are matched case-insensitively after BOM stripping, so
// Date/date/DATE and Tone/AvgTone variants all resolve.
func ParseArticleList(csvText string, fallbackTone func() float64) ([]Article, ParseStats, error) {
	var stats ParseStats

	csvText = strings.TrimPrefix(strings.TrimSpace(csvText), "\uFEFF")
	if csvText == "" {
		return nil, stats, nil
	}

	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, stats, err
	}
	if len(rows) < 2 {
		return nil, stats, nil
	}

	// Column lookup by normalized header name
	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if key != "" {
			columns[key] = i
		}
	}

	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := columns[name]; ok && i < len(row) {
				return row[i]
			}
		}
		return ""
	}

	var articles []Article
	for _, row := range rows[1:] {
		day, ok := CleanDay(field(row, "date", "sqldate"))
		if !ok {
			stats.SkippedBadDate++
			continue
		}

		url := strings.TrimSpace(field(row, "url"))
		if url == "" {
			stats.SkippedNoURL++
			continue
		}

		var tone float64
		toneStr := strings.TrimSpace(field(row, "tone", "avgtone"))
		if toneStr == "" {
			tone = fallbackTone()
			stats.ToneFallbacks++
		} else if parsed, err := strconv.ParseFloat(toneStr, 64); err == nil {
			tone = parsed
		} else {
			tone = fallbackTone()
			stats.ToneFallbacks++
		}

		articles = append(articles, Article{Day: day, URL: url, Tone: tone})
		stats.Accepted++
	}

	return articles, stats, nil
}

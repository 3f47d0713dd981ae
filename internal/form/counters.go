package form

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Counters is the live feedback shown under the job description box.
type Counters struct {
	Chars     int
	Words     int
	CharLabel string
	WordLabel string
	// NearLimit is set once the text grows past the warning threshold.
	NearLimit bool
}

// CountWords returns the number of whitespace separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func newCounters(text string, limit, warnAt int) Counters {
	chars := utf8.RuneCountInString(text)
	words := CountWords(text)

	return Counters{
		Chars:     chars,
		Words:     words,
		CharLabel: fmt.Sprintf("%d/%d", chars, limit),
		WordLabel: WordLabel(words),
		NearLimit: chars > warnAt,
	}
}

// WordLabel formats a word count as "1 word" or "N words".
func WordLabel(words int) string {
	if words == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", words)
}

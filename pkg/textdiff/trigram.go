package textdiff

import "strings"

// TrigramDice computes the Sørensen–Dice coefficient over character
// trigrams of old and new (each trimmed; strings shorter than 3 runes
// contribute no trigrams). Both-empty returns 1.0; exactly-one-empty
// returns 0.0.
func TrigramDice(old, new string) float64 {
	oldGrams := trigramMultiset(old)
	newGrams := trigramMultiset(new)

	if len(oldGrams) == 0 && len(newGrams) == 0 {
		return 1.0
	}
	if len(oldGrams) == 0 || len(newGrams) == 0 {
		return 0.0
	}

	oldCounts := counter(oldGrams)
	newCounts := counter(newGrams)

	intersection := 0
	for gram, n := range oldCounts {
		if m, ok := newCounts[gram]; ok {
			if n < m {
				intersection += n
			} else {
				intersection += m
			}
		}
	}

	total := len(oldGrams) + len(newGrams)
	if total == 0 {
		return 0.0
	}
	return 2.0 * float64(intersection) / float64(total)
}

func trigramMultiset(text string) []string {
	cleaned := strings.TrimSpace(text)
	runes := []rune(cleaned)
	if len(runes) < 3 {
		return nil
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i <= len(runes)-3; i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}

func counter(items []string) map[string]int {
	m := make(map[string]int, len(items))
	for _, item := range items {
		m[item]++
	}
	return m
}

package export

import "unicode/utf8"

// charsPerToken is the coarse ratio used for every format.
const charsPerToken = 4

// Estimate approximates the token count of text as ceil(runes/4).
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

var contextWindows = []struct {
	limit int
	label string
}{
	{8_000, "Fits GPT-3.5 (8K)"},
	{16_000, "Fits Claude Haiku (16K)"},
	{32_000, "Fits ChatGPT Plus (32K)"},
	{128_000, "Fits GPT-4o / Claude (128K)"},
	{200_000, "Fits Claude (200K)"},
}

// ContextFit names the smallest common model context window that holds tokens.
func ContextFit(tokens int) string {
	for _, w := range contextWindows {
		if tokens < w.limit {
			return w.label
		}
	}
	return "Exceeds most context windows"
}

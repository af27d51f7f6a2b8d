package summarize

import "strings"

// simpleSuffix marks summaries made without a model.
const simpleSuffix = " (Simple summary mode)"

// Simple summarizes text by taking its leading sentences, considering at
// most ten, while they fit within maxLength characters. When not even the
// first sentence fits, the text is truncated instead.
func Simple(text string, maxLength int) string {
	text = strings.Join(strings.Fields(text), " ")
	sentences := strings.Split(text, ". ")

	var picked []string
	length := 0
	for _, s := range sentences[:min(len(sentences), 10)] {
		n := len([]rune(s))
		if length+n > maxLength {
			break
		}
		picked = append(picked, s)
		length += n + 2
	}

	if len(picked) == 0 {
		r := []rune(text)
		return string(r[:min(len(r), maxLength)]) + "..."
	}

	summary := strings.Join(picked, ". ")
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary + simpleSuffix
}

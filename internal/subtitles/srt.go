package subtitles

import "strings"

// CountCues counts blank-line separated blocks that contain a timing line.
// It is only meaningful for SubRip text.
func CountCues(text string) int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	count := 0
	for block := range strings.SplitSeq(strings.TrimSpace(text), "\n\n") {
		if strings.Contains(block, "-->") {
			count++
		}
	}
	return count
}

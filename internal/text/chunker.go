package text

// DefaultChunkSize is the chunk length, in runes, used when none is given.
const DefaultChunkSize = 1000

// Chunk normalizes s and splits it into ordered, non-empty chunks of at most
// size runes. A chunk ends after the last sentence terminator that fits in
// the window, else at the last space, else at a hard cut.
func Chunk(s string, size int) []string {
	s = Normalize(s)
	if s == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	r := []rune(s)
	if len(r) <= size {
		return []string{s}
	}

	var chunks []string
	pos := 0
	for pos < len(r) {
		// A hard cut can leave the separator at the head of the next window.
		for pos < len(r) && r[pos] == ' ' {
			pos++
		}
		if pos >= len(r) {
			break
		}

		end := min(pos+size, len(r))
		if end < len(r) {
			if i := lastSentenceEnd(r, pos, end); i >= 0 {
				end = i + 2
			} else if i := lastSpace(r, pos, end); i > pos {
				end = i + 1
			}
		}

		if c := trimSpaces(r[pos:end]); c != "" {
			chunks = append(chunks, c)
		}
		pos = end
	}
	return chunks
}

// lastSentenceEnd returns the index of the rightmost terminator in r[pos:end]
// that is followed by whitespace still inside the window, or -1.
func lastSentenceEnd(r []rune, pos, end int) int {
	for i := end - 2; i >= pos; i-- {
		switch r[i] {
		case '.', '!', '?':
			if r[i+1] == ' ' || r[i+1] == '\n' {
				return i
			}
		}
	}
	return -1
}

func lastSpace(r []rune, pos, end int) int {
	for i := end - 1; i >= pos; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimSpaces(r []rune) string {
	start, end := 0, len(r)
	for start < end && r[start] == ' ' {
		start++
	}
	for end > start && r[end-1] == ' ' {
		end--
	}
	return string(r[start:end])
}

package utils

// DefaultChunkWindow is the number of characters per chunk when none is configured.
const DefaultChunkWindow = 1000

// SplitText cuts text into consecutive, non-overlapping windows of at most
// 'window' characters (runes). The last window holds the remainder, so the
// number of chunks is ceil(len/window) and joining them yields text back.
// Boundaries are purely positional; words and sentences may be split.
func SplitText(text string, window int) []string {
	if window <= 0 {
		window = DefaultChunkWindow
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	totalLen := len(runes)

	chunks := make([]string, 0, (totalLen+window-1)/window)
	for i := 0; i < totalLen; i += window {
		end := i + window
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks
}

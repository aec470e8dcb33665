// Package chunker groups label names into translation requests by size.
package chunker

// MaxTranslateBytes is the largest text Amazon Translate accepts in a
// single TranslateText request.
const MaxTranslateBytes = 10000

// JoinedSize returns the byte length of texts joined with sep.
func JoinedSize(texts []string, sep string) int {
	if len(texts) == 0 {
		return 0
	}
	size := len(sep) * (len(texts) - 1)
	for _, text := range texts {
		size += len(text)
	}
	return size
}

// ChunkByBytes splits texts into consecutive chunks whose joined size
// (using sep) doesn't exceed maxBytes.
// Each text is kept whole - never split mid-text.
// Returns a slice of chunks, where each chunk is a slice of texts.
func ChunkByBytes(texts []string, sep string, maxBytes int) [][]string {
	if len(texts) == 0 {
		return nil
	}

	if maxBytes <= 0 {
		maxBytes = MaxTranslateBytes
	}

	var chunks [][]string
	var currentChunk []string
	currentBytes := 0

	for _, text := range texts {
		// If a single text exceeds maxBytes, it gets its own chunk
		if len(text) > maxBytes {
			if len(currentChunk) > 0 {
				chunks = append(chunks, currentChunk)
				currentChunk = nil
				currentBytes = 0
			}
			chunks = append(chunks, []string{text})
			continue
		}

		added := len(text)
		if len(currentChunk) > 0 {
			added += len(sep)
		}

		// If adding this text would exceed the limit, start a new chunk
		if currentBytes+added > maxBytes && len(currentChunk) > 0 {
			chunks = append(chunks, currentChunk)
			currentChunk = nil
			currentBytes = 0
			added = len(text)
		}

		currentChunk = append(currentChunk, text)
		currentBytes += added
	}

	if len(currentChunk) > 0 {
		chunks = append(chunks, currentChunk)
	}

	return chunks
}

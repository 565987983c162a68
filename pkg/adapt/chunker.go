package adapt

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkMarkdown splits markdown into model-sized pieces along heading and
// paragraph boundaries, measuring size in tokens. Empty input yields no
// chunks.
func ChunkMarkdown(markdown string, maxChunkTokens, chunkOverlap int) ([]string, error) {
	if markdown == "" {
		return nil, nil
	}

	lenFunc := func(s string) int { return CountTokens(s) }

	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(maxChunkTokens),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithLenFunc(lenFunc),
	)

	chunks, err := splitter.SplitText(markdown)
	if err != nil {
		return nil, err
	}

	// Drop whitespace-only chunks the splitter occasionally emits around
	// heading boundaries
	out := chunks[:0]
	for _, chunk := range chunks {
		if len(chunk) > 0 {
			out = append(out, chunk)
		}
	}
	return out, nil
}

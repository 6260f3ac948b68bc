package transcript

import (
	"strings"
)

// Chunk is a contiguous piece of a collection's text used as a retrieval unit.
type Chunk struct {
	Position int
	Content  string
}

// Chunking parameters. A chunk carries up to ChunkOverlap characters repeated
// from the tail of its predecessor, so fresh content per chunk is at most
// MaxChunkSize-ChunkOverlap characters.
const (
	MaxChunkSize = 1250
	ChunkOverlap = 250
)

// SplitText splits collection text into overlapping chunks. Paragraph
// boundaries (blank lines) are preferred; paragraphs longer than the fresh
// content budget are hard-split. Whitespace-only input yields no chunks.
func SplitText(text string) []Chunk {
	return splitText(text, MaxChunkSize, ChunkOverlap)
}

func splitText(text string, maxSize, overlap int) []Chunk {
	if maxSize <= overlap {
		return nil
	}
	step := maxSize - overlap

	bodies := packParagraphs(text, step)
	if len(bodies) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(bodies))
	for i, body := range bodies {
		content := body
		if i > 0 {
			prev := chunks[i-1].Content
			if len(prev) >= overlap {
				content = prev[len(prev)-overlap:] + content
			} else {
				content = prev + content
			}
		}
		chunks = append(chunks, Chunk{Position: i, Content: content})
	}

	return chunks
}

// packParagraphs groups paragraphs into segments of at most size characters,
// splitting oversized paragraphs at exact character offsets.
func packParagraphs(text string, size int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Joining with the separator must not push the segment past size.
		joined := len(para)
		if current.Len() > 0 {
			joined += current.Len() + 2
		}
		if joined > size {
			flush()
		}

		if len(para) > size {
			for start := 0; start < len(para); start += size {
				end := start + size
				if end > len(para) {
					end = len(para)
				}
				segments = append(segments, para[start:end])
			}
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return segments
}

package audio

import (
	"fmt"
	"time"
)

// ChunkLength is the fixed analysis window.
const ChunkLength = 30 * time.Second

// Window is one chunk of a song. Index is 1-based.
type Window struct {
	Index  int
	Start  time.Duration
	Length time.Duration
}

// ChunkCount is ceil(total / ChunkLength).
func ChunkCount(total time.Duration) int {
	if total <= 0 {
		return 0
	}
	n := int(total / ChunkLength)
	if total%ChunkLength != 0 {
		n++
	}
	return n
}

// Windows lists every window of a file of the given length. The last window
// keeps the full ChunkLength; ffmpeg stops at end of input.
func Windows(total time.Duration) []Window {
	n := ChunkCount(total)
	out := make([]Window, 0, n)
	for i := range n {
		out = append(out, Window{
			Index:  i + 1,
			Start:  time.Duration(i) * ChunkLength,
			Length: ChunkLength,
		})
	}
	return out
}

// SegmentName is the temp file name for window index.
func SegmentName(index int) string {
	return fmt.Sprintf("chunk_%d.mp3", index)
}

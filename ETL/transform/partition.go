package transform

import (
	"sync"
)

// span is a half-open range [start, end) of one visitor's events in a visitor-sorted slice
type span struct {
	start int
	end   int
}

// visitorSpans splits a slice sorted by visitor into one span per visitor
func visitorSpans(n int, visitorAt func(i int) string) []span {
	var spans []span
	for start := 0; start < n; {
		end := start + 1
		for end < n && visitorAt(end) == visitorAt(start) {
			end++
		}
		spans = append(spans, span{start: start, end: end})
		start = end
	}
	return spans
}

// forEachSpan runs fn for every span on at most workers goroutines.
// Spans are handed out in chunks; fn must only write to memory owned by its span.
func forEachSpan(spans []span, workers int, fn func(i int, s span)) {
	if workers <= 1 || len(spans) <= 1 {
		for i, s := range spans {
			fn(i, s)
		}
		return
	}
	if workers > len(spans) {
		workers = len(spans)
	}

	chunkSize := (len(spans) + workers - 1) / workers

	var wg sync.WaitGroup
	for from := 0; from < len(spans); from += chunkSize {
		to := from + chunkSize
		if to > len(spans) {
			to = len(spans)
		}

		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				fn(i, spans[i])
			}
		}(from, to)
	}
	wg.Wait()
}

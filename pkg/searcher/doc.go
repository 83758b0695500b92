// Package searcher finds exact occurrences of a pattern in indexed files.
//
// Search runs in two passes:
//
//	┌──────────────────┐   candidate files    ┌───────────────────────┐
//	│   FileSearcher   │ ───────────────────▶ │  BoyerMooreSearcher   │
//	│ (word → paths)   │                      │ (line/column scan)    │
//	└──────────────────┘                      └───────────────────────┘
//
// The recall pass asks the index for files that contain the pattern as a
// whole word. The precision pass scans each candidate line by line and
// reports every exact, case-sensitive occurrence. A pattern that only occurs
// inside a longer word is therefore not found, even though a plain substring
// scan would see it.
//
// # Usage
//
//	s, err := searcher.NewBoyerMooreSearcher(textIndexer)
//	if err != nil {
//	    return err
//	}
//	results, err := s.SearchPathWithPosition(ctx, "file")
//
// Positions are zero-based. Columns count Unicode code points.
//
// Every shift of the scan is capped by the classical safe shift, so the
// reported occurrences are always exactly those of a naive scan, overlapping
// ones included: "bab" in "babab bab" is found at columns 0, 2 and 6.
package searcher

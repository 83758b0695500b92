package searcher

// shiftTable holds the bad-character data for one pattern.
//
// shift follows the classic table of this searcher: scanning the pattern left
// to right, a character at index i gets L-i-2, the last character gets L-1,
// and later occurrences overwrite earlier ones. last is the index of the
// rightmost occurrence of each character and bounds every shift so no
// occurrence is ever skipped.
type shiftTable struct {
	pattern []rune
	shift   map[rune]int
	last    map[rune]int
}

func newShiftTable(pattern string) *shiftTable {
	p := []rune(pattern)
	m := len(p)
	t := &shiftTable{
		pattern: p,
		shift:   make(map[rune]int, m),
		last:    make(map[rune]int, m),
	}
	for i, c := range p {
		if i == m-1 {
			t.shift[c] = m - 1
		} else {
			t.shift[c] = m - i - 2
		}
		t.last[c] = i
	}
	return t
}

func (t *shiftTable) shiftOr(c rune, def int) int {
	if v, ok := t.shift[c]; ok {
		return v
	}
	return def
}

func (t *shiftTable) lastOr(c rune) int {
	if v, ok := t.last[c]; ok {
		return v
	}
	return -1
}

// scan returns the start column of every occurrence of the pattern in line,
// overlapping occurrences included.
func (t *shiftTable) scan(line []rune) []int {
	p := t.pattern
	m, n := len(p), len(line)
	if m == 0 || m > n {
		return nil
	}

	var cols []int
	i := 0
	for i+m <= n {
		j := m - 1
		for j >= 0 && line[i+j] == p[j] {
			j--
		}

		if j < 0 {
			cols = append(cols, i)
			if i+m < n {
				next := line[i+m]
				i += min(m-t.shiftOr(next, -1), m-t.lastOr(next))
			} else {
				i++
			}
			continue
		}

		c := line[i+j]
		i += min(max(1, t.shiftOr(c, m)), max(1, j-t.lastOr(c)))
	}
	return cols
}

package citation

import "unicode/utf8"

// Capture is one captured slot of a match.
type Capture struct {
	// Text is the captured text. Empty when the slot did not participate.
	Text string
	// Start is the absolute document offset of Text.
	Start int
}

// Match is one occurrence of the outer citation pattern.
type Match struct {
	// Start and End are absolute document offsets of the whole match.
	Start int
	End   int
	// Slots holds the captures in role order (see Role).
	Slots [SlotCount]Capture
}

// Text returns the matched text reassembled from its slots.
func (m Match) Text() string {
	var n int
	for _, c := range m.Slots {
		n += len(c.Text)
	}
	b := make([]byte, 0, n)
	for _, c := range m.Slots {
		b = append(b, c.Text...)
	}
	return string(b)
}

// Matcher walks the outer pattern across one text range. Each call to Next
// resumes after the previous match, so matches never share a byte. A Matcher
// is single-use: create a new one for every range.
type Matcher struct {
	grammar *Grammar
	text    string
	offset  int
	pos     int
	done    bool
}

// Next returns the next match, or false once the range is exhausted.
func (m *Matcher) Next() (Match, bool) {
	for !m.done && m.pos <= len(m.text) {
		loc := m.grammar.outer.FindStringSubmatchIndex(m.text[m.pos:])
		if loc == nil {
			m.done = true
			break
		}

		start := m.pos + loc[0]
		if !anchoredAt(m.text, start) {
			// Not preceded by a boundary; retry one rune later.
			_, size := utf8.DecodeRuneInString(m.text[start:])
			m.pos = start + size
			continue
		}

		match := Match{
			Start: m.offset + start,
			End:   m.offset + m.pos + loc[1],
		}
		for i := range SlotCount {
			lo, hi := loc[2*(i+1)], loc[2*(i+1)+1]
			if lo < 0 || lo == hi {
				continue
			}
			match.Slots[i] = Capture{
				Text:  m.text[m.pos+lo : m.pos+hi],
				Start: m.offset + m.pos + lo,
			}
		}

		m.pos += loc[1]
		return match, true
	}
	return Match{}, false
}

// Fragment is one key of a key list and the separator that follows it.
type Fragment struct {
	Key string
	// Separator is "; " style punctuation after the key; empty for the last key.
	Separator string
}

// Splitter walks a captured key list ("@a; @b;@c") one fragment at a time.
// Like Matcher it is single-use.
type Splitter struct {
	grammar *Grammar
	text    string
	pos     int
}

// Next returns the next fragment, or false when the list is consumed.
func (s *Splitter) Next() (Fragment, bool) {
	if s.pos >= len(s.text) {
		return Fragment{}, false
	}
	loc := s.grammar.inner.FindStringSubmatchIndex(s.text[s.pos:])
	// A key list always continues with a key right at the cursor.
	if loc == nil || loc[0] != 0 {
		s.pos = len(s.text)
		return Fragment{}, false
	}

	frag := Fragment{Key: s.text[s.pos+loc[2] : s.pos+loc[3]]}
	if loc[4] >= 0 {
		frag.Separator = s.text[s.pos+loc[4] : s.pos+loc[5]]
	}
	s.pos += loc[1]
	return frag, true
}

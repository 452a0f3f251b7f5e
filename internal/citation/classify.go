package citation

// Classify turns one captured slot into at most one span and returns the
// cursor advanced past the capture. An empty capture yields no span and
// leaves the cursor where it was. RoleKeyList is handled by ClassifyMatch.
func Classify(role Role, text string, cursor int, sourceID string) (Span, bool, int) {
	if text == "" {
		return Span{}, false, cursor
	}
	span := Span{
		Start:    cursor,
		End:      cursor + len(text),
		Kind:     role.Kind(),
		SourceID: sourceID,
	}
	if span.Kind == KindCitationKey {
		span.Key = text
	}
	return span, true, span.End
}

// ClassifyMatch appends the spans of one match to dst in document order.
// The spans cover the match exactly.
func (g *Grammar) ClassifyMatch(dst []Span, m Match, sourceID string) []Span {
	cursor := m.Start
	for i, c := range m.Slots {
		role := slotRoles[i]
		if role == RoleKeyList {
			dst, cursor = g.splitKeys(dst, c.Text, cursor, sourceID)
			continue
		}
		var (
			span Span
			ok   bool
		)
		span, ok, cursor = Classify(role, c.Text, cursor, sourceID)
		if ok {
			dst = append(dst, span)
		}
	}
	return dst
}

// splitKeys classifies a key list fragment by fragment. Each separator span
// starts where its key ends and the next key starts where the separator ends.
func (g *Grammar) splitKeys(dst []Span, list string, cursor int, sourceID string) ([]Span, int) {
	if list == "" {
		return dst, cursor
	}
	sp := g.Splitter(list)
	for {
		frag, ok := sp.Next()
		if !ok {
			return dst, cursor
		}
		var span Span
		span, _, cursor = Classify(RoleKey, frag.Key, cursor, sourceID)
		dst = append(dst, span)
		if frag.Separator != "" {
			span, _, cursor = Classify(RoleSeparator, frag.Separator, cursor, sourceID)
			dst = append(dst, span)
		}
	}
}

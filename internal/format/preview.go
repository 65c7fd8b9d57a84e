package format

const ellipsis = "..."

// Preview cuts s to at most limit characters and marks the cut with an
// ellipsis. Strings that fit are returned unchanged.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}

	return string(rs[:limit]) + ellipsis
}

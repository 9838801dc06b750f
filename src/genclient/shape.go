package genclient

// ShapePolicy controls how post content is cut down before transmission.
// Lengths are counted in Unicode code points; zero disables a limit.
type ShapePolicy struct {
	// MaxLength is the user-configured content cap.
	MaxLength int
	// HardCap is an absolute ceiling applied regardless of MaxLength.
	HardCap int
}

// Shape truncates content according to the policy. Content within the limits
// is returned unmodified.
func (p ShapePolicy) Shape(content string) string {
	limit := p.MaxLength
	if p.HardCap > 0 && (limit <= 0 || p.HardCap < limit) {
		limit = p.HardCap
	}
	return truncateRunes(content, limit)
}

// truncateRunes cuts s to at most n runes. n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

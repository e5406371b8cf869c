package notifications

// Dedupe returns the distinct non-empty tokens in first-seen order.
// Every dispatch site passes its recipients through here, so no token appears
// twice in one multicast.
func Dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

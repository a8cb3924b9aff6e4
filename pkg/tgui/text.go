package tgui

// TruncRunes shortens s to at most n runes. When it cuts, the last rune kept
// is replaced by "…". Button labels use it so a long name never splits a rune.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

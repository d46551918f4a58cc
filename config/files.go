package config

import "strings"

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in file names on this
// platform.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if strings.ContainsRune(forbiddenNameChars, sym) {
			return -1
		}
		return sym
	}, in)
	if len(trimNameLeft) > 0 {
		out = strings.TrimLeft(out, trimNameLeft)
	}
	if len(out) == 0 {
		out = badFileName
	}
	return out
}

package obd

import "strings"

// IsEcho reports whether line is the adapter reflecting lastSent back rather
// than answering it. Lines carrying the data response prefix are never echoes,
// even when a data byte happens to spell the command.
func IsEcho(lastSent, line string) bool {
	cmd := compact(lastSent)
	if cmd == "" {
		return false
	}
	l := compact(line)
	if strings.HasPrefix(l, ResponsePrefix) {
		return false
	}
	return strings.Contains(l, cmd)
}

func compact(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

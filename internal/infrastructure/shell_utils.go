package infrastructure

import "strings"

// shellSpecial lists characters that would need quoting in a shell.
// Escaping here is for log display only; exec.Command passes argv as-is.
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscape quotes a single argument for display in a command line
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}

	// Single-quote the argument; an embedded single quote closes the
	// quote, emits it double-quoted, and reopens.
	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		if c == '\'' {
			b.WriteString(`'"'"'`)
		} else {
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// ShellEscapeCommand renders a full command line for logging
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

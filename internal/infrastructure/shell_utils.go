package infrastructure

import "strings"

// shellSpecialChars are the characters that force quoting in a displayed command line
const shellSpecialChars = " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"

// ShellEscape quotes a string for display in a shell command line.
// It is only used for the job log header; exec.Command never needs it.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	// close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders a binary and its arguments as one copy-pasteable line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

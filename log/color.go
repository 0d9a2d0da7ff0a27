package log

const colorReset = "\033[0m"

var levelColors = map[LogLevel]string{
	Debug: "\033[90m",
	Info:  "\033[36m",
	Warn:  "\033[33m",
	Error: "\033[31m",
	Fatal: "\033[1;31m",
}

// Color returns the ANSI sequence used for a level.
func Color(l LogLevel) string {
	if c, ok := levelColors[l]; ok {
		return c
	}
	return colorReset
}

package logging

import "fmt"

// LogError logs an error under a short tag such as "Runtime".
func LogError(tag string, err error) {
	logger.handle(LogLevelError, formatMessage(ErrorStyleBG, ErrorColorFG, tag+" Error", err.Error()))
}

// LogWarning logs a warning.
func LogWarning(tag, msg string) {
	logger.handle(LogLevelWarning, formatMessage(WarnStyleBG, WarnColorFG, tag, msg))
}

// LogInfo logs progress information; only shown at the verbose level.
func LogInfo(tag, msg string) {
	logger.handle(LogLevelVerbose, formatMessage(InfoStyleBG, InfoColorFG, tag, msg))
}

// LogBailout records that the baseline code generator declined a
// function. where is the source position of the offending construct.
func LogBailout(function, reason, where string) {
	msg := fmt.Sprintf("%s: %s", function, reason)
	if where != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, where)
	}
	logger.handle(LogLevelVerbose, formatMessage(WarnStyleBG, WarnColorFG, "Bailout", msg))
}

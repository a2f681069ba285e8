package entry

import "strings"

// Level is the severity of a log entry, ordered from least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
	LevelAlert
	LevelEmergency
)

// ParseLevel maps a level token to a Level, case-insensitively. Unknown
// tokens map to LevelInfo rather than failing, so a recognized log line with
// an odd level string still produces an entry.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info", "information":
		return LevelInfo
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return LevelWarning
	case "error", "err":
		return LevelError
	case "critical", "crit", "fatal":
		return LevelCritical
	case "alert":
		return LevelAlert
	case "emergency", "emerg":
		return LevelEmergency
	default:
		return LevelInfo
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l Level) AtLeast(other Level) bool {
	return l >= other
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelNotice:
		return "NOTICE"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	case LevelAlert:
		return "ALERT"
	case LevelEmergency:
		return "EMERGENCY"
	default:
		return "INFO"
	}
}

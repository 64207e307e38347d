package its

import (
	"fmt"
	"strings"
)

// Check selects a health-check probe
type Check int

const (
	// CheckAccess verifies the API key and reports the authenticated user
	CheckAccess Check = iota
	// CheckSysinfo verifies reachability and reports the configured URL
	CheckSysinfo
)

func (c Check) String() string {
	if c == CheckAccess {
		return "access"
	}
	return "sysinfo"
}

// ParseCheck parses "access" or "sysinfo", case-insensitively
func ParseCheck(s string) (Check, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "access":
		return CheckAccess, nil
	case "sysinfo":
		return CheckSysinfo, nil
	default:
		return 0, fmt.Errorf("unknown health check %q", s)
	}
}

package devices

import (
	"fmt"
	"strings"
)

const clickingExcerpt = "Manual Page 52: Clicking sounds can be a symptom of filter blockage or water in the tubing. Please check and dry the tubing."

// FindManual stands in for a knowledge-base search: it knows a single page,
// the AirSense 10 clicking-noise entry.
func FindManual(deviceModel, issueKeywords string) string {
	if strings.Contains(strings.ToLower(issueKeywords), "clicking") &&
		strings.Contains(strings.ToLower(deviceModel), "airsense 10") {
		return clickingExcerpt
	}
	return fmt.Sprintf("I found no specific manual page for '%s' on the %s. Try simplifying your query.", issueKeywords, deviceModel)
}

package usecases

import (
	"fmt"
	"strings"
)

// placeDelimiter separates place names in a discovery completion.
const placeDelimiter = ";"

// DetourPrompt asks the model for attractions within maxDetourMiles of the drive.
func DetourPrompt(startName, endName string, maxDetourMiles int) string {
	return fmt.Sprintf(
		"List 3 famous tourist attractions between %s and %s within %d miles detour. Format: Name; Name; Name",
		startName, endName, maxDetourMiles,
	)
}

// FunFactPrompt asks the model for one short fact about a place.
func FunFactPrompt(name string) string {
	return fmt.Sprintf("Tell me a fun fact about %s.", name)
}

// SplitPlaceNames splits a completion on ';', trims each segment and drops empty ones.
// The model is not trusted to follow the format; whatever it returns is split as-is.
func SplitPlaceNames(text string) []string {
	var names []string
	for _, part := range strings.Split(text, placeDelimiter) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

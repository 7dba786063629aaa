package domain

import (
	"errors"
	"fmt"
)

// User-facing transient messages.
const (
	MsgSelectEndpoints = "Please select both Start and End locations."
	MsgSearchFirst     = "Please tap Search (magnifying glass) first to find stops!"
	MsgNoCoordinates   = "AI found names but Geocoder couldn't find coordinates. Try a major highway."
	MsgPlayingAudio    = "Playing Audio..."
	MsgNoResponse      = "No response"
)

func MsgSuggests(raw string) string { return "AI suggests: " + raw }

func MsgAIError(err error) string { return "AI Error: " + err.Error() }

func MsgRouteError(err error) string { return "Could not fetch route: " + err.Error() }

func MsgAssistantError(err error) string { return "Error: " + err.Error() }

func MsgTourStarted(endName string) string {
	return fmt.Sprintf("Starting tour to %s. Tap any purple marker to hear about it.", endName)
}

// UserMessage returns the transient message shown for a well-known error, or err's text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRouteIncomplete):
		return MsgSelectEndpoints
	case errors.Is(err, ErrNoPOIs):
		return MsgSearchFirst
	default:
		return err.Error()
	}
}

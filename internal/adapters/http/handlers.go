package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// SessionView is a session plus everything a client derives from it to draw the screen.
type SessionView struct {
	*domain.Session
	RouteLine []domain.GeoPoint `json:"route_line"`
	Controls  domain.Controls   `json:"controls"`
	Viewport  domain.Viewport   `json:"viewport"`
}

func newSessionView(s *domain.Session) SessionView {
	line := s.RouteLine()
	if line == nil {
		line = []domain.GeoPoint{}
	}
	return SessionView{Session: s, RouteLine: line, Controls: s.Controls(), Viewport: s.Viewport()}
}

// AutocompleteResponse carries suggestions and the token to reuse for the follow-up details call.
type AutocompleteResponse struct {
	SessionToken string                   `json:"session_token"`
	Suggestions  []domain.PlaceSuggestion `json:"suggestions"`
}

// DetourRequest is the body of PUT /sessions/:id/detour.
type DetourRequest struct {
	MaxDetourMiles *float64 `json:"max_detour_miles"`
}

// NarrationRequest is the body of POST /narrations.
type NarrationRequest struct {
	Name string `json:"name"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Prompt string `json:"prompt"`
}

const (
	maxQueryLen     = 200
	maxPromptLen    = 4000
	defaultGazLimit = 10
	maxGazLimit     = 50
)

// CreateSessionHandler starts a new drive session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.CreateSessionInput
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return errBadRequest(c, "invalid JSON body")
			}
		}

		sess, err := deps.Sessions.Create(c.UserContext(), in)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newSessionView(sess))
	}
}

// CreateDemoSessionHandler starts a session preloaded with the demo route.
func CreateDemoSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.CreateDemo(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newSessionView(sess))
	}
}

// GetSessionHandler returns one session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// DeleteSessionHandler ends a session and silences its speech.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetEndpointHandler sets the start or end of a session's route.
func SetEndpointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		which := c.Params("which")
		if which != usecases.EndpointStart && which != usecases.EndpointEnd {
			return errBadRequest(c, "endpoint must be start or end")
		}

		var in usecases.EndpointInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if in.Location != nil && !in.Location.Valid() {
			return errBadRequest(c, "location out of range")
		}

		sess, err := deps.Sessions.SetEndpoint(c.UserContext(), c.Params("id"), which, in)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// SetDetourHandler changes the maximum detour. Values are clamped, never rejected.
func SetDetourHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DetourRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.MaxDetourMiles == nil {
			return errBadRequest(c, "max_detour_miles is required")
		}

		sess, err := deps.Sessions.SetDetour(c.UserContext(), c.Params("id"), *req.MaxDetourMiles)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// DiscoverHandler runs POI discovery for the session's route.
func DiscoverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Discovery.Discover(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDiscovery(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// StartTourHandler switches the session into tour mode.
func StartTourHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.StartTour(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// StopTourHandler leaves tour mode and stops any speech.
func StopTourHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.StopTour(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newSessionView(sess))
	}
}

// NarratePOIHandler speaks a fun fact about the tapped POI.
func NarratePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil {
			return errBadRequest(c, "index must be an integer")
		}

		n, err := deps.Narration.NarrateTap(c.UserContext(), c.Params("id"), index)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(n)
	}
}

// NarrationHandler returns a fun fact about any named place, without speaking it.
func NarrationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req NarrationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if len(req.Name) > maxQueryLen {
			return errBadRequest(c, "name too long (max 200 characters)")
		}

		n, err := deps.Narration.FunFact(c.UserContext(), req.Name)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(n)
	}
}

// AskHandler forwards a free-form prompt to the assistant.
func AskHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AskRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if len(req.Prompt) > maxPromptLen {
			return errBadRequest(c, "prompt too long (max 4000 characters)")
		}

		reply, err := deps.Assistant.Ask(c.UserContext(), req.Prompt)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(reply)
	}
}

// AutocompleteHandler returns place predictions for partial input.
func AutocompleteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if len(q) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = deps.Places.NewSessionToken()
		}

		return c.JSON(AutocompleteResponse{
			SessionToken: token,
			Suggestions:  deps.Places.Autocomplete(c.UserContext(), q, token),
		})
	}
}

// PlaceDetailsHandler resolves an autocomplete place id to a coordinate.
func PlaceDetailsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Places.Details(c.UserContext(), c.Params("id"), c.Query("token"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(place)
	}
}

// GazetteerSearchHandler fuzzy-searches the local place table.
func GazetteerSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Gazetteer == nil {
			return errUnavailable(c, "gazetteer not configured")
		}

		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", defaultGazLimit)
		if limit <= 0 || limit > maxGazLimit {
			limit = defaultGazLimit
		}

		places, err := deps.Gazetteer.Search(c.UserContext(), q, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if places == nil {
			places = []domain.Place{}
		}
		return c.JSON(places)
	}
}

package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	endpointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Endpoint",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "POI",
		Fields: graphql.Fields{
			"name":            &graphql.Field{Type: graphql.String},
			"location":        &graphql.Field{Type: geoPointType},
			"off_route_miles": &graphql.Field{Type: graphql.Float},
		},
	})

	controlsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Controls",
		Fields: graphql.Fields{
			"edit_route":     &graphql.Field{Type: graphql.Boolean},
			"search":         &graphql.Field{Type: graphql.Boolean},
			"start_tour":     &graphql.Field{Type: graphql.Boolean},
			"stop_tour":      &graphql.Field{Type: graphql.Boolean},
			"narrate_on_tap": &graphql.Field{Type: graphql.Boolean},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"target": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
			"bounds": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "Bounds",
				Fields: graphql.Fields{
					"min_lat": &graphql.Field{Type: graphql.Float},
					"min_lon": &graphql.Field{Type: graphql.Float},
					"max_lat": &graphql.Field{Type: graphql.Float},
					"max_lon": &graphql.Field{Type: graphql.Float},
				},
			})},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"start":            &graphql.Field{Type: endpointType},
			"end":              &graphql.Field{Type: endpointType},
			"max_detour_miles": &graphql.Field{Type: graphql.Int},
			"pois":             &graphql.Field{Type: graphql.NewList(poiType)},
			"route_line":       &graphql.Field{Type: graphql.NewList(geoPointType)},
			"tour_active":      &graphql.Field{Type: graphql.Boolean},
			"busy":             &graphql.Field{Type: graphql.Boolean},
			"route_revision":   &graphql.Field{Type: graphql.Int},
			"controls":         &graphql.Field{Type: controlsType},
			"viewport":         &graphql.Field{Type: viewportType},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"place_id": &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	suggestionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlaceSuggestion",
		Fields: graphql.Fields{
			"place_id":     &graphql.Field{Type: graphql.String},
			"primary_text": &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
		},
	})

	narrationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Narration",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"text":     &graphql.Field{Type: graphql.String},
			"fallback": &graphql.Field{Type: graphql.Boolean},
		},
	})

	replyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AssistantReply",
		Fields: graphql.Fields{
			"text":   &graphql.Field{Type: graphql.String},
			"failed": &graphql.Field{Type: graphql.Boolean},
		},
	})

	endpointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "EndpointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"place_id":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"session_token": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"name":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lat":           &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"lon":           &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	// sessionResolver adapts a session-returning call to a GraphQL value.
	sessionResolver := func(fn func(p graphql.ResolveParams) (*domain.Session, error)) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			sess, err := fn(p)
			if err != nil {
				return nil, gqlError(err)
			}
			return toGraphQL(newSessionView(sess))
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a drive session by ID",
				Args:        idArg,
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					return deps.Sessions.Get(p.Context, p.Args["id"].(string))
				}),
			},
			"autocomplete": &graphql.Field{
				Type:        graphql.NewList(suggestionType),
				Description: "Place suggestions for partial input",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"token": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					token := p.Args["token"].(string)
					if token == "" {
						token = deps.Places.NewSessionToken()
					}
					return toGraphQL(deps.Places.Autocomplete(p.Context, p.Args["input"].(string), token))
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Resolve an autocomplete place ID",
				Args:        idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					place, err := deps.Places.Details(p.Context, p.Args["id"].(string), "")
					if err != nil {
						return nil, gqlError(err)
					}
					return toGraphQL(place)
				},
			},
			"gazetteer": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Fuzzy search of the local place table",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultGazLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Gazetteer == nil {
						return nil, errors.New("gazetteer not configured")
					}
					limit := p.Args["limit"].(int)
					if limit <= 0 || limit > maxGazLimit {
						limit = defaultGazLimit
					}
					places, err := deps.Gazetteer.Search(p.Context, p.Args["query"].(string), limit)
					if err != nil {
						return nil, err
					}
					return toGraphQL(places)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSession": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"start":            &graphql.ArgumentConfig{Type: endpointInput},
					"end":              &graphql.ArgumentConfig{Type: endpointInput},
					"max_detour_miles": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					var in usecases.CreateSessionInput
					if m, ok := p.Args["start"].(map[string]interface{}); ok {
						ep := endpointFromArgs(m)
						in.Start = &ep
					}
					if m, ok := p.Args["end"].(map[string]interface{}); ok {
						ep := endpointFromArgs(m)
						in.End = &ep
					}
					if miles, ok := p.Args["max_detour_miles"].(float64); ok {
						in.MaxDetourMiles = &miles
					}
					return deps.Sessions.Create(p.Context, in)
				}),
			},
			"createDemoSession": &graphql.Field{
				Type: sessionType,
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					return deps.Sessions.CreateDemo(p.Context)
				}),
			},
			"setEndpoint": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"which": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(endpointInput)},
				},
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					in := endpointFromArgs(p.Args["input"].(map[string]interface{}))
					return deps.Sessions.SetEndpoint(p.Context, p.Args["id"].(string), p.Args["which"].(string), in)
				}),
			},
			"setDetour": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"id":               &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"max_detour_miles": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					return deps.Sessions.SetDetour(p.Context, p.Args["id"].(string), p.Args["max_detour_miles"].(float64))
				}),
			},
			"discover": &graphql.Field{
				Type: sessionType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := deps.Discovery.Discover(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, gqlDiscoveryError(err)
					}
					return toGraphQL(newSessionView(sess))
				},
			},
			"startTour": &graphql.Field{
				Type: sessionType,
				Args: idArg,
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					return deps.Sessions.StartTour(p.Context, p.Args["id"].(string))
				}),
			},
			"stopTour": &graphql.Field{
				Type: sessionType,
				Args: idArg,
				Resolve: sessionResolver(func(p graphql.ResolveParams) (*domain.Session, error) {
					return deps.Sessions.StopTour(p.Context, p.Args["id"].(string))
				}),
			},
			"narrate": &graphql.Field{
				Type: narrationType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"index": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					n, err := deps.Narration.NarrateTap(p.Context, p.Args["id"].(string), p.Args["index"].(int))
					if err != nil {
						return nil, gqlError(err)
					}
					return toGraphQL(n)
				},
			},
			"ask": &graphql.Field{
				Type: replyType,
				Args: graphql.FieldConfigArgument{
					"prompt": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reply, err := deps.Assistant.Ask(p.Context, p.Args["prompt"].(string))
					if err != nil {
						return nil, gqlError(err)
					}
					return toGraphQL(reply)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// toGraphQL turns a JSON-tagged value into maps so the default resolvers can
// read fields by their JSON names.
func toGraphQL(v any) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// gqlError rewrites well-known errors to the message a user should see.
func gqlError(err error) error {
	return errors.New(domain.UserMessage(err))
}

// gqlDiscoveryError is gqlError with the discovery wording for upstream failures.
func gqlDiscoveryError(err error) error {
	if domain.IsRequestError(err) {
		return gqlError(err)
	}
	return errors.New(domain.MsgAIError(err))
}

func endpointFromArgs(m map[string]interface{}) usecases.EndpointInput {
	var in usecases.EndpointInput
	in.PlaceID, _ = m["place_id"].(string)
	in.SessionToken, _ = m["session_token"].(string)
	in.Name, _ = m["name"].(string)
	lat, hasLat := m["lat"].(float64)
	lon, hasLon := m["lon"].(float64)
	if hasLat && hasLon {
		in.Location = &domain.GeoPoint{Lat: lat, Lon: lon}
	}
	return in
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

package telemetry

// Span names used for instrumentation.
const (
	SpanDiscover      = "discovery.run"
	SpanSuggest       = "discovery.suggest"
	SpanGeocode       = "discovery.geocode"
	SpanDirections    = "route.directions"
	SpanNarrate       = "narration.fact"
	SpanSynthesize    = "speech.synthesize"
	SpanAssistantAsk  = "assistant.ask"
	SpanAutocomplete  = "places.autocomplete"
	SpanPlaceDetails  = "places.details"
	AttrSessionID     = "session.id"
	AttrPlaceName     = "place.name"
	AttrGeocoder      = "geocode.provider"
	AttrPOICount      = "discovery.poi_count"
	AttrSuggestedName = "discovery.suggested_names"
)

package domain

// The fixed Los Angeles to San Diego demonstration route.
var (
	DemoStart = Endpoint{Name: "Los Angeles", Location: &GeoPoint{Lat: 34.0549, Lon: -118.2426}}
	DemoEnd   = Endpoint{Name: "San Diego", Location: &GeoPoint{Lat: 32.7157, Lon: -117.1611}}
)

const DemoPrompt = "I am driving from Los Angeles to San Diego. " +
	"List 3 famous tourist stops directly along this route. " +
	"Return ONLY the names of the places separated by a semicolon ';'. " +
	"Example: Place A; Place B; Place C"

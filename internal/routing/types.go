package routing

// Location is a geographic coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Estimate sources.
const (
	SourceAPI      = "api"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Estimate statuses. Anything other than StatusOK means the estimate is
// the conservative fallback and the status names what went wrong.
const (
	StatusOK          = "ok"
	StatusZeroResults = "zero_results"
	StatusNotFound    = "not_found"
	StatusError       = "error"
)

// FallbackTravelMinutes is the conservative estimate used whenever the
// upstream matrix API cannot produce a usable duration. Overestimating
// travel keeps technicians from being double-booked on thin margins.
const FallbackTravelMinutes = 30

// TravelEstimate is the drive time between two locations in whole
// minutes, rounded up, with the distance in meters.
type TravelEstimate struct {
	Minutes int    `json:"minutes"`
	Meters  int64  `json:"meters"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Source  string `json:"source"`
}

// fallbackEstimate tags the conservative default with the failure that
// caused it.
func fallbackEstimate(status, detail string) TravelEstimate {
	return TravelEstimate{
		Minutes: FallbackTravelMinutes,
		Status:  status,
		Detail:  detail,
		Source:  SourceFallback,
	}
}

// LookupRequest represents the address search query parameters.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

// AddressSuggestion is the normalized geocoder result returned to the
// frontend form.
type AddressSuggestion struct {
	Label       string `json:"label"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	ZipCode     string `json:"zipCode"`
	City        string `json:"city"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}

// matrixResponse mirrors the relevant parts of the distance matrix payload.
type matrixResponse struct {
	Status string      `json:"status"`
	Rows   []matrixRow `json:"rows"`
}

type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

type matrixElement struct {
	Status            string          `json:"status"`
	Duration          *matrixDuration `json:"duration"`
	DurationInTraffic *matrixDuration `json:"duration_in_traffic"`
	Distance          *matrixDistance `json:"distance"`
}

type matrixDuration struct {
	Seconds int64 `json:"value"`
}

type matrixDistance struct {
	Meters int64 `json:"value"`
}

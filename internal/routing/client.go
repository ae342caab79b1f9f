package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dispatch_backend/platform/logger"
)

// matrixClient calls the distance matrix API for drive durations.
type matrixClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

func newMatrixClient(baseURL, apiKey string, log *logger.Logger) *matrixClient {
	return &matrixClient{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// driveResult is a successful matrix lookup.
type driveResult struct {
	seconds int64
	meters  int64
}

// matrixError is a failed matrix lookup tagged with the estimate status
// the failure maps to.
type matrixError struct {
	status string
	msg    string
}

func (e *matrixError) Error() string { return e.msg }

// upstreamStatusTag maps a matrix API status string to an estimate
// status tag.
func upstreamStatusTag(status string) string {
	switch status {
	case "ZERO_RESULTS":
		return StatusZeroResults
	case "NOT_FOUND":
		return StatusNotFound
	default:
		return StatusError
	}
}

// Drive returns the drive duration and distance between two points.
// The traffic-aware duration is preferred when the upstream includes one.
func (c *matrixClient) Drive(ctx context.Context, from, to Location, departure time.Time) (driveResult, error) {
	params := url.Values{}
	params.Add("origins", formatLocation(from))
	params.Add("destinations", formatLocation(to))
	params.Add("mode", "driving")
	params.Add("departure_time", strconv.FormatInt(departure.Unix(), 10))
	params.Add("key", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return driveResult{}, &matrixError{status: StatusError, msg: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("matrix request failed", "error", err)
		return driveResult{}, &matrixError{status: StatusError, msg: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("matrix upstream error", "status", resp.StatusCode)
		return driveResult{}, &matrixError{status: StatusError, msg: fmt.Sprintf("upstream api error: %d", resp.StatusCode)}
	}

	var payload matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("failed to decode matrix payload", "error", err)
		return driveResult{}, &matrixError{status: StatusError, msg: err.Error()}
	}

	if payload.Status != "OK" {
		return driveResult{}, &matrixError{status: upstreamStatusTag(payload.Status), msg: fmt.Sprintf("matrix status %q", payload.Status)}
	}
	if len(payload.Rows) == 0 || len(payload.Rows[0].Elements) == 0 {
		return driveResult{}, &matrixError{status: StatusZeroResults, msg: "matrix returned no elements"}
	}

	element := payload.Rows[0].Elements[0]
	if element.Status != "OK" {
		return driveResult{}, &matrixError{status: upstreamStatusTag(element.Status), msg: fmt.Sprintf("matrix element status %q", element.Status)}
	}

	result := driveResult{}
	if element.Distance != nil {
		result.meters = element.Distance.Meters
	}
	if element.DurationInTraffic != nil {
		result.seconds = element.DurationInTraffic.Seconds
		return result, nil
	}
	if element.Duration == nil {
		return driveResult{}, &matrixError{status: StatusError, msg: "matrix element missing duration"}
	}
	result.seconds = element.Duration.Seconds
	return result, nil
}

func formatLocation(loc Location) string {
	return strconv.FormatFloat(loc.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(loc.Lng, 'f', 6, 64)
}

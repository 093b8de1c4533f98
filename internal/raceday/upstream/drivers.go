package upstream

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// Driver directory lookups are bounded to this result window.
const (
	driverSearchLowerBound = 1
	driverSearchUpperBound = 25
)

// DriverMatch is the outcome of a driver directory search.
type DriverMatch struct {
	Exists bool
	Name   string
	CustID int64
}

// DriverLookup searches the upstream driver directory.
type DriverLookup struct {
	client *Client
}

// NewDriverLookup creates a driver lookup over the given client.
func NewDriverLookup(client *Client) *DriverLookup {
	return &DriverLookup{client: client}
}

// Search looks up a display name in the driver directory. An exact
// case-insensitive match is preferred; otherwise the first case-insensitive
// substring match wins. "Not found" is a result, not an error; only
// transport and upstream failures surface as errors.
func (d *DriverLookup) Search(ctx context.Context, displayName string) (DriverMatch, apperrors.Error) {
	body, err := d.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/lookup/drivers",
		Query: map[string]string{
			"search_term": displayName,
			"lowerbound":  strconv.Itoa(driverSearchLowerBound),
			"upperbound":  strconv.Itoa(driverSearchUpperBound),
		},
	})
	if err != nil {
		return DriverMatch{}, err
	}

	var drivers []DriverRecord
	if err := json.Unmarshal(body, &drivers); err != nil {
		return DriverMatch{}, ErrUpstreamDecode.MsgErr("driver lookup", err)
	}
	if len(drivers) == 0 {
		return DriverMatch{}, nil
	}

	want := strings.ToLower(displayName)
	var substring *DriverRecord
	for i := range drivers {
		got := strings.ToLower(drivers[i].DisplayName)
		if got == want {
			return DriverMatch{Exists: true, Name: drivers[i].DisplayName, CustID: drivers[i].CustID}, nil
		}
		if substring == nil && strings.Contains(got, want) {
			substring = &drivers[i]
		}
	}
	if substring != nil {
		return DriverMatch{Exists: true, Name: substring.DisplayName, CustID: substring.CustID}, nil
	}
	return DriverMatch{}, nil
}

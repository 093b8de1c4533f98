package upstream

import (
	"context"
	"errors"
	"net/http"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// RaceGuideFetcher retrieves the live race schedule. No filtering happens at
// this layer; raw entries pass through so the normalizer owns all business
// rules.
type RaceGuideFetcher struct {
	client *Client
}

// NewRaceGuideFetcher creates a race guide fetcher over the given client.
func NewRaceGuideFetcher(client *Client) *RaceGuideFetcher {
	return &RaceGuideFetcher{client: client}
}

// FetchSchedule retrieves the current race guide. A payload without a
// session list is fatal to the fetch cycle and surfaces as an error; the
// caller decides whether to serve previously persisted data instead.
func (f *RaceGuideFetcher) FetchSchedule(ctx context.Context) ([]RawSession, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/season/race_guide",
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Sessions []RawSession `json:"sessions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("race guide", err)
	}
	if payload.Sessions == nil {
		return nil, ErrMalformedEnvelope.Err(errors.New("race guide payload has no session list"))
	}
	return payload.Sessions, nil
}

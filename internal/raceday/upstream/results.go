package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// ResultsFetcher retrieves per-session results from the upstream results
// endpoint.
type ResultsFetcher struct {
	client *Client
}

// NewResultsFetcher creates a results fetcher over the given client.
func NewResultsFetcher(client *Client) *ResultsFetcher {
	return &ResultsFetcher{client: client}
}

// FetchSessionResults retrieves the result set for a completed subsession.
func (f *ResultsFetcher) FetchSessionResults(ctx context.Context, subsessionID int64) (*SessionResult, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/results/get",
		Query:  map[string]string{"subsession_id": strconv.FormatInt(subsessionID, 10)},
	})
	if err != nil {
		return nil, err
	}

	var result SessionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("session results", err)
	}
	return &result, nil
}

package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/logtrace"
)

// SendJsonRsp sends msg as a JSON response with the given status code.
// Pre-marshaled JSON strings and byte slices pass through unchanged.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, msg any) {
	var msgJson []byte
	if s, ok := msg.(string); ok {
		b := []byte(s)
		if json.Valid(b) {
			msgJson = b
		}
	} else if b, ok := msg.([]byte); ok {
		if json.Valid(b) {
			msgJson = b
		}
	} else {
		var err error
		msgJson, err = json.Marshal(msg)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("unable to marshal json")
			ErrApplicationError("Id: " + logtrace.RequestIdFromContext(ctx)).Send(w)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(msgJson)
}

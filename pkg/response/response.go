package response

import (
	"encoding/json"
	"net/http"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
)

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON error body. Internal errors are logged and their
// message is not exposed.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	e := apierr.As(err)
	msg := e.Error()
	if e.Code == apierr.CodeInternal {
		if log != nil {
			log.Error("request failed", "error", err)
		}
		msg = "internal error"
	}
	JSON(w, e.Status, errorBody{Error: e.Code, Message: msg, Fields: e.Fields})
}

package handler

import (
	"encoding/json"
	"net/http"

	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/pkg/apierror"
	"tillpoint-pos-api/pkg/response"
)

// ConnectivityHandler feeds link up/down events into the monitor. This is
// the service-side analogue of the browser's online/offline events: state
// changes arrive as events, never via polling.
type ConnectivityHandler struct {
	monitor *connectivity.Monitor
}

// NewConnectivityHandler creates a new connectivity handler.
func NewConnectivityHandler(monitor *connectivity.Monitor) *ConnectivityHandler {
	return &ConnectivityHandler{monitor: monitor}
}

// connectivityEvent is the JSON body for POST /api/v1/connectivity.
type connectivityEvent struct {
	Online *bool `json:"online"`
}

// SetState handles POST /api/v1/connectivity
func (h *ConnectivityHandler) SetState(w http.ResponseWriter, r *http.Request) {
	var event connectivityEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if event.Online == nil {
		response.Error(w, apierror.ValidationError("missing field",
			apierror.FieldError{Field: "online", Message: "online is required"}))
		return
	}

	h.monitor.SetOnline(*event.Online)
	response.OK(w, map[string]bool{"online": h.monitor.IsOnline()})
}

// GetState handles GET /api/v1/connectivity
func (h *ConnectivityHandler) GetState(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]bool{"online": h.monitor.IsOnline()})
}

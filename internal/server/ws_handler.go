package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribe handles GET requests on the "/ws" endpoint. The user query
// parameter is required; conversation is optional and additionally
// subscribes the connection to that conversation's feed.
func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	user, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil || user < 1 {
		http.Error(w, "Query parameter \"user\" must be a valid id greater than zero", http.StatusBadRequest)
		return
	}

	var conversation int64
	if raw := r.URL.Query().Get("conversation"); raw != "" {
		conversation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || conversation < 1 {
			http.Error(w, "Query parameter \"conversation\" must be a valid id greater than zero", http.StatusBadRequest)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("upgrading websocket connection: %v", err)
		return
	}

	h.hub.Register(conn, user, conversation)
}

package server

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"skillswap/internal/storage"
)

const defaultRecentLimit = 10

func validActivityType(t string) bool {
	switch t {
	case storage.ActivityMessage, storage.ActivitySession,
		storage.ActivityFileExchange, storage.ActivityStatusChange:
		return true
	}
	return false
}

// logActivity handles HTTP requests on the "/history/add" endpoint.
func (h *handler) logActivity(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.historyPool.Get()
	defer h.parsers.historyPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	user, msg := requireID(v, "user")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	activityType, msg := requireString(v, "activity_type")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !validActivityType(activityType) {
		http.Error(w, "Field \"activity_type\" must be one of \"message\", \"session\", \"file_exchange\", \"status_change\"", http.StatusBadRequest)
		return
	}

	description, msg := requireString(v, "description")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	var metadata map[string]interface{}
	if meta := v.Get("metadata"); meta != nil {
		if err := json.Unmarshal(meta.MarshalTo(nil), &metadata); err != nil {
			http.Error(w, "Field \"metadata\" must be an object", http.StatusBadRequest)
			return
		}
	}

	record, err := h.store.LogActivity(r.Context(), storage.NewActivity{
		SwapID:       swap,
		UserID:       user,
		ActivityType: activityType,
		Description:  description,
		Metadata:     metadata,
	})
	if err != nil {
		switch err {
		case storage.ErrSwapNotExist:
			http.Error(w, "Swap with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrActivityBadUser:
			http.Error(w, "User with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrBadActivityType:
			http.Error(w, "Field \"activity_type\" must be one of \"message\", \"session\", \"file_exchange\", \"status_change\"", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusCreated, record)
}

// swapHistory handles HTTP requests on the "/history/get" endpoint.
func (h *handler) swapHistory(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.historyPool.Get()
	defer h.parsers.historyPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	history, err := h.store.SwapHistory(r.Context(), swap)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// historyByType handles HTTP requests on the "/history/by-type" endpoint.
func (h *handler) historyByType(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.historyPool.Get()
	defer h.parsers.historyPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	activityType, msg := requireString(v, "type")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !validActivityType(activityType) {
		http.Error(w, "Field \"type\" must be one of \"message\", \"session\", \"file_exchange\", \"status_change\"", http.StatusBadRequest)
		return
	}

	history, err := h.store.HistoryByType(r.Context(), swap, activityType)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// recentActivities handles HTTP requests on the "/history/recent" endpoint.
func (h *handler) recentActivities(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.historyPool.Get()
	defer h.parsers.historyPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	limit := defaultRecentLimit
	if v.Exists("limit") {
		n, err := v.Get("limit").Int64()
		if err != nil || n < 1 {
			http.Error(w, "Field \"limit\" must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = int(n)
	}

	history, err := h.store.RecentActivities(r.Context(), swap, limit)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// activityStats handles HTTP requests on the "/history/stats" endpoint.
func (h *handler) activityStats(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.historyPool.Get()
	defer h.parsers.historyPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	stats, err := h.store.ActivityStatsBySwap(r.Context(), swap)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

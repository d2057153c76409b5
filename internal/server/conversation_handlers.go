package server

import (
	"io/ioutil"
	"net/http"
	"strconv"

	"skillswap/internal/storage"
)

// conversationStart handles HTTP requests on the "/conversations/start"
// endpoint. Resolving is idempotent: both argument orders and repeated calls
// yield the same conversation id.
func (h *handler) conversationStart(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.conversationPool.Get()
	defer h.parsers.conversationPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	userA, msg := requireID(v, "user_a")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	userB, msg := requireID(v, "user_b")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	id, err := h.store.GetOrCreateConversation(r.Context(), userA, userB)
	if err != nil {
		switch err {
		case storage.ErrSameUser:
			http.Error(w, "Fields \"user_a\" and \"user_b\" must reference two distinct users", http.StatusBadRequest)
			return
		case storage.ErrUserNotExist:
			http.Error(w, "One of the provided users does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	payload := []byte(`{"id":` + strconv.FormatInt(id, 10) + `}`)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(payload); err != nil {
		h.logger.Errorf("writing marshaled data to ResponseWriter: %v", err)
	}
}

// conversationsByUser handles HTTP requests on the "/conversations/get"
// endpoint.
func (h *handler) conversationsByUser(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.conversationPool.Get()
	defer h.parsers.conversationPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	user, msg := requireID(v, "user")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	summaries, err := h.store.ConversationsByUserID(r.Context(), user)
	if err != nil {
		switch err {
		case storage.ErrUserNotExist:
			http.Error(w, "User does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

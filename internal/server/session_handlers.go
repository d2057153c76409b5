package server

import (
	"io/ioutil"
	"net/http"
	"time"

	"skillswap/internal/storage"
)

// createSession handles HTTP requests on the "/sessions/add" endpoint.
// A fresh meeting link is generated and "scheduled_at" defaults to now.
func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.sessionPool.Get()
	defer h.parsers.sessionPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	createdBy, msg := requireID(v, "created_by")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	scheduledAt := time.Now()
	if raw, msg := optionalString(v, "scheduled_at"); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	} else if raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Field \"scheduled_at\" must be an RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		scheduledAt = parsed
	}

	session, err := h.store.CreateSession(r.Context(), swap, createdBy, scheduledAt, h.links.Link())
	if err != nil {
		switch err {
		case storage.ErrSwapNotExist:
			http.Error(w, "Swap with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrUserNotExist:
			http.Error(w, "User with provided id does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusCreated, session)
}

// sessionsBySwap handles HTTP requests on the "/sessions/get" endpoint.
func (h *handler) sessionsBySwap(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.sessionPool.Get()
	defer h.parsers.sessionPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	swap, msg := requireID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	sessions, err := h.store.SessionsBySwap(r.Context(), swap)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, sessions)
}

// sessionTransition parses the common {id} payload of the session lifecycle
// endpoints and runs the provided transition.
func (h *handler) sessionTransition(w http.ResponseWriter, r *http.Request,
	transition func(id int64) (storage.Session, error)) {

	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.sessionPool.Get()
	defer h.parsers.sessionPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	id, msg := requireID(v, "id")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	session, err := transition(id)
	if err != nil {
		switch err {
		case storage.ErrSessionNotExist:
			http.Error(w, "Session with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrSessionFinished:
			http.Error(w, "Session is already completed or cancelled", http.StatusBadRequest)
			return
		case storage.ErrSwapNotExist:
			http.Error(w, "Swap of the provided session does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, session)
}

// startSession handles HTTP requests on the "/sessions/start" endpoint.
func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	h.sessionTransition(w, r, func(id int64) (storage.Session, error) {
		return h.store.StartSession(r.Context(), id)
	})
}

// endSession handles HTTP requests on the "/sessions/end" endpoint.
func (h *handler) endSession(w http.ResponseWriter, r *http.Request) {
	h.sessionTransition(w, r, func(id int64) (storage.Session, error) {
		return h.store.EndSession(r.Context(), id)
	})
}

// cancelSession handles HTTP requests on the "/sessions/cancel" endpoint.
func (h *handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	h.sessionTransition(w, r, func(id int64) (storage.Session, error) {
		return h.store.CancelSession(r.Context(), id)
	})
}

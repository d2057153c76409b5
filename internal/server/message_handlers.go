package server

import (
	"io/ioutil"
	"net/http"

	"skillswap/internal/storage"
)

// attachmentPlaceholder substitutes the content of a message that carries
// only files.
const attachmentPlaceholder = "(File attachment)"

// createMessage handles HTTP requests on the "/messages/add" endpoint.
// Empty content is rejected unless "has_attachments" is set, in which case a
// placeholder is stored and the caller is expected to upload the files
// against the returned message id.
func (h *handler) createMessage(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.messagePool.Get()
	defer h.parsers.messagePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	sender, msg := requireID(v, "sender")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	receiver, msg := requireID(v, "receiver")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	conversation, msg := requireID(v, "conversation")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	swapID, msg := optionalID(v, "swap")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	offerID, msg := optionalID(v, "offer")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	content, msg := optionalString(v, "content")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if content == "" {
		if !v.GetBool("has_attachments") {
			http.Error(w, "Field \"content\" must have non-zero length unless \"has_attachments\" is set", http.StatusBadRequest)
			return
		}
		content = attachmentPlaceholder
	}

	message, err := h.store.CreateMessage(r.Context(), storage.NewMessage{
		ConversationID: conversation,
		SenderID:       sender,
		ReceiverID:     receiver,
		SwapID:         swapID,
		OfferID:        offerID,
		Content:        content,
	})
	if err != nil {
		switch err {
		case storage.ErrConversationNotExist:
			http.Error(w, "Conversation with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrMessageBadSender:
			http.Error(w, "Sender with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrMessageBadReceiver:
			http.Error(w, "Receiver with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrSwapNotExist:
			http.Error(w, "Swap with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrOfferNotExist:
			http.Error(w, "Offer with provided id does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.hub.BroadcastMessage(message)

	h.writeJSON(w, http.StatusCreated, message)
}

// messagesByConversation handles HTTP requests on the "/messages/get"
// endpoint.
func (h *handler) messagesByConversation(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.messagePool.Get()
	defer h.parsers.messagePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	conversation, msg := requireID(v, "conversation")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	messages, err := h.store.MessagesByConversation(r.Context(), conversation)
	if err != nil {
		switch err {
		case storage.ErrConversationNotExist:
			http.Error(w, "Conversation with provided id does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, messages)
}

// updateOffer handles HTTP requests on the "/offers/update" endpoint.
// Subscribers of the conversation receive an offer_update push and refetch
// the message list; offers are embedded in messages by reference only.
func (h *handler) updateOffer(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.offerPool.Get()
	defer h.parsers.offerPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	offerID, msg := requireID(v, "offer")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	status, msg := requireString(v, "status")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	switch status {
	case storage.OfferPending, storage.OfferAccepted, storage.OfferDeclined:
	default:
		http.Error(w, "Field \"status\" must be one of \"pending\", \"accepted\", \"declined\"", http.StatusBadRequest)
		return
	}

	offer, err := h.store.UpdateOfferStatus(r.Context(), offerID, status)
	if err != nil {
		switch err {
		case storage.ErrOfferNotExist:
			http.Error(w, "Offer with provided id does not exist", http.StatusBadRequest)
			return
		case storage.ErrBadOfferStatus:
			http.Error(w, "Field \"status\" must be one of \"pending\", \"accepted\", \"declined\"", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	h.hub.BroadcastOfferUpdate(offer)

	h.writeJSON(w, http.StatusOK, offer)
}

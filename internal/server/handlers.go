package server

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"skillswap/internal/blob"
	"skillswap/internal/cache"
	"skillswap/internal/meetlink"
	"skillswap/internal/realtime"
	"skillswap/internal/storage"
)

// TODO limit reading from body

type parsers struct {
	conversationPool fastjson.ParserPool
	messagePool      fastjson.ParserPool
	attachmentPool   fastjson.ParserPool
	sessionPool      fastjson.ParserPool
	historyPool      fastjson.ParserPool
	offerPool        fastjson.ParserPool
	profilePool      fastjson.ParserPool
}

type handler struct {
	logger  *zap.SugaredLogger
	store   *storage.Store
	blobs   *blob.Store
	cache   *cache.Cache
	hub     *realtime.Hub
	links   *meetlink.Generator
	parsers parsers
}

// requireID extracts a positive int64 field, returning a violation message
// when it is missing or malformed.
func requireID(v *fastjson.Value, field string) (int64, string) {
	if !v.Exists(field) {
		return 0, "Missing Field \"" + field + "\""
	}

	id, err := v.Get(field).Int64()
	if err != nil {
		return 0, "Field \"" + field + "\" must be a 64-bit integer value"
	}

	if id < 1 {
		return 0, "Field \"" + field + "\" must be a valid id greater than zero"
	}

	return id, ""
}

// optionalID is requireID for fields that may be absent.
func optionalID(v *fastjson.Value, field string) (*int64, string) {
	if !v.Exists(field) {
		return nil, ""
	}

	id, msg := requireID(v, field)
	if msg != "" {
		return nil, msg
	}

	return &id, ""
}

// requireString extracts a non-empty string field.
func requireString(v *fastjson.Value, field string) (string, string) {
	if !v.Exists(field) {
		return "", "Missing Field \"" + field + "\""
	}

	b, err := v.Get(field).StringBytes()
	if err != nil {
		return "", "Field \"" + field + "\" must be a string"
	}

	if len(b) == 0 {
		return "", "Field \"" + field + "\" must have non-zero length"
	}

	return string(b), ""
}

// optionalString extracts a string field, empty when absent.
func optionalString(v *fastjson.Value, field string) (string, string) {
	if !v.Exists(field) {
		return "", ""
	}

	b, err := v.Get(field).StringBytes()
	if err != nil {
		return "", "Field \"" + field + "\" must be a string"
	}

	return string(b), ""
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error(err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		h.logger.Errorf("writing marshaled data to ResponseWriter: %v", err)
	}
}

func (h *handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

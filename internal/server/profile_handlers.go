package server

import (
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"skillswap/internal/storage"
)

const timezonesCacheKey = "timezones"

func profileCacheKey(user int64) string {
	return "profile:" + strconv.FormatInt(user, 10)
}

// parseList splits a comma-separated settings field into trimmed non-empty
// items, the shape the lists are persisted in.
func parseList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// boolOr reads an optional boolean field with a default.
func boolOr(v *fastjson.Value, field string, def bool) bool {
	if !v.Exists(field) {
		return def
	}
	return v.GetBool(field)
}

// getProfile handles HTTP requests on the "/profiles/get" endpoint. Reads
// go through the display cache so repeated loads of the same profile are
// instant.
func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.profilePool.Get()
	defer h.parsers.profilePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	user, msg := requireID(v, "user")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if cached, ok := h.cache.Get(profileCacheKey(user)); ok {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	profile, err := h.store.ProfileByUserID(r.Context(), user)
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

	h.cache.Set(profileCacheKey(user), profile)

	h.writeJSON(w, http.StatusOK, profile)
}

// updateProfile handles HTTP requests on the "/profiles/update" endpoint.
// The document is replaced as a whole; list fields arrive comma-separated
// the way the settings form submits them. A successful save invalidates the
// display cache so the next read refetches.
func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.profilePool.Get()
	defer h.parsers.profilePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	user, msg := requireID(v, "user")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	fullName, msg := requireString(v, "full_name")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	var (
		upd  storage.ProfileUpdate
		errs []string
	)
	upd.FullName = fullName

	strField := func(field string) string {
		s, msg := optionalString(v, field)
		if msg != "" {
			errs = append(errs, msg)
		}
		return s
	}

	upd.Bio = strField("bio")
	upd.City = strField("city")
	upd.Country = strField("country")
	upd.Timezone = strField("timezone")
	upd.Availability = strField("availability")
	upd.ProfileImageURL = strField("profile_image_url")
	upd.Languages = parseList(strField("languages"))
	upd.SkillsOffered = parseList(strField("skills_offered"))
	upd.SkillsWanted = parseList(strField("skills_wanted"))

	if len(errs) > 0 {
		http.Error(w, errs[0], http.StatusBadRequest)
		return
	}

	upd.Notifications = storage.NotificationSettings{
		Email:         boolOr(v, "email_notifications", true),
		Push:          boolOr(v, "push_notifications", true),
		MatchAlerts:   boolOr(v, "match_alerts", true),
		MessageAlerts: boolOr(v, "message_alerts", true),
		ReviewAlerts:  boolOr(v, "review_alerts", true),
		WeeklyDigest:  boolOr(v, "weekly_digest", false),
	}

	profile, err := h.store.UpdateProfile(r.Context(), user, upd)
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

	h.cache.Invalidate(profileCacheKey(user))

	h.writeJSON(w, http.StatusOK, profile)
}

// getTimezones handles HTTP requests on the "/timezones/get" endpoint. The
// reference list never changes at runtime, so it is cached after the first
// read.
func (h *handler) getTimezones(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(timezonesCacheKey); ok {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	zones, err := h.store.Timezones(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.cache.Set(timezonesCacheKey, zones)

	h.writeJSON(w, http.StatusOK, zones)
}

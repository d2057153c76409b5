package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"skillswap/internal/blob"
	"skillswap/internal/cache"
	"skillswap/internal/meetlink"
	"skillswap/internal/realtime"
	"skillswap/internal/storage"
)

// bootstrapHandler builds a handler without a database connection. Tests
// using it exercise only paths that fail validation or are served from the
// cache or blob store before any query runs.
func bootstrapHandler(t *testing.T) *handler {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	sugar := logger.Sugar()

	blobs, err := blob.NewStore(sugar, blob.Config{
		Dir:    t.TempDir(),
		Secret: "test-secret",
		URLTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	return &handler{
		logger: sugar,
		blobs:  blobs,
		cache:  cache.New(nil),
		hub:    realtime.NewHub(sugar),
		links:  meetlink.NewSeeded("", 1),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, payload string) *httptest.ResponseRecorder {
	req, err := http.NewRequest("POST", "/", bytes.NewBufferString(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireID(t *testing.T) {
	var p fastjson.Parser

	v, err := p.Parse(`{"user":42}`)
	require.NoError(t, err)
	id, msg := requireID(v, "user")
	require.Empty(t, msg)
	require.Equal(t, int64(42), id)

	v, err = p.Parse(`{}`)
	require.NoError(t, err)
	_, msg = requireID(v, "user")
	require.Equal(t, `Missing Field "user"`, msg)

	v, err = p.Parse(`{"user":"42"}`)
	require.NoError(t, err)
	_, msg = requireID(v, "user")
	require.Equal(t, `Field "user" must be a 64-bit integer value`, msg)

	v, err = p.Parse(`{"user":0}`)
	require.NoError(t, err)
	_, msg = requireID(v, "user")
	require.Equal(t, `Field "user" must be a valid id greater than zero`, msg)
}

func TestConversationStartValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.conversationStart, `{"user_b":41}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"user_a\"\n", rr.Body.String())

	rr = postJSON(t, h.conversationStart, `{"user_a":39}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"user_b\"\n", rr.Body.String())
}

func TestCreateMessageValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.createMessage, `{"receiver":41,"conversation":4,"content":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"sender\"\n", rr.Body.String())

	rr = postJSON(t, h.createMessage, `{"sender":39,"receiver":41,"conversation":4}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"content\" must have non-zero length unless \"has_attachments\" is set\n", rr.Body.String())

	rr = postJSON(t, h.createMessage, `{"sender":39,"receiver":41,"conversation":4,"swap":"seven","content":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"swap\" must be a 64-bit integer value\n", rr.Body.String())
}

func TestUpdateOfferValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.updateOffer, `{"offer":5,"status":"maybe"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"status\" must be one of \"pending\", \"accepted\", \"declined\"\n", rr.Body.String())

	rr = postJSON(t, h.updateOffer, `{"offer":5}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"status\"\n", rr.Body.String())
}

func TestCreateSessionValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.createSession, `{"created_by":39}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"swap\"\n", rr.Body.String())

	rr = postJSON(t, h.createSession, `{"swap":7,"created_by":39,"scheduled_at":"tomorrow"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"scheduled_at\" must be an RFC 3339 timestamp\n", rr.Body.String())
}

func TestSessionTransitionValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.startSession, `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"id\"\n", rr.Body.String())

	rr = postJSON(t, h.endSession, `{"id":-3}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"id\" must be a valid id greater than zero\n", rr.Body.String())
}

func TestLogActivityValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.logActivity, `{"swap":7,"user":39,"activity_type":"party","description":"x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"activity_type\" must be one of \"message\", \"session\", \"file_exchange\", \"status_change\"\n", rr.Body.String())

	rr = postJSON(t, h.logActivity, `{"swap":7,"user":39,"activity_type":"message"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"description\"\n", rr.Body.String())
}

func TestHistoryByTypeValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.historyByType, `{"swap":7,"type":"party"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"type\" must be one of \"message\", \"session\", \"file_exchange\", \"status_change\"\n", rr.Body.String())
}

func TestRecentActivitiesValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.recentActivities, `{"swap":7,"limit":0}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"limit\" must be a positive integer\n", rr.Body.String())
}

func TestGetProfileServedFromCache(t *testing.T) {
	h := bootstrapHandler(t)

	h.cache.Set("profile:39", storage.Profile{UserID: 39, FullName: "Alice Teacher"})

	rr := postJSON(t, h.getProfile, `{"user":39}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var p storage.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "Alice Teacher", p.FullName)
}

func TestUpdateProfileValidation(t *testing.T) {
	h := bootstrapHandler(t)

	rr := postJSON(t, h.updateProfile, `{"user":39}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing Field \"full_name\"\n", rr.Body.String())

	rr = postJSON(t, h.updateProfile, `{"user":39,"full_name":""}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Field \"full_name\" must have non-zero length\n", rr.Body.String())
}

func TestGetTimezonesServedFromCache(t *testing.T) {
	h := bootstrapHandler(t)

	h.cache.Set("timezones", []storage.Timezone{{ID: 1, Name: "Europe/Moscow", UTCOffset: "+03:00"}})

	rr := postJSON(t, h.getTimezones, `{}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var zones []storage.Timezone
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &zones))
	require.Len(t, zones, 1)
	require.Equal(t, "Europe/Moscow", zones[0].Name)
}

func TestParseList(t *testing.T) {
	require.Equal(t, []string{"English", "Russian"}, parseList("English, Russian"))
	require.Equal(t, []string{"Guitar"}, parseList("Guitar"))
	require.Equal(t, []string{}, parseList(""))
	require.Equal(t, []string{"a", "b"}, parseList(" a ,, b ,"))
}

func TestAttachmentViews(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	views := attachmentViews([]storage.Attachment{
		{ID: 1, FileName: "photo.png", FileType: "image/png", FileSize: 1536,
			CreatedAt: now.Add(-5 * time.Minute)},
		{ID: 2, FileName: "notes.pdf", FileType: "application/pdf", FileSize: 512,
			CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: 3, FileName: "archive.zip", FileType: "application/zip", FileSize: 3 << 20,
			CreatedAt: now.Add(-30 * time.Second)},
	}, now)

	require.Len(t, views, 3)
	require.Equal(t, "image", views[0].Kind)
	require.Equal(t, "1.5 KB", views[0].DisplaySize)
	require.Equal(t, "5m ago", views[0].Uploaded)
	require.Equal(t, "document", views[1].Kind)
	require.Equal(t, "512 B", views[1].DisplaySize)
	require.Equal(t, "2d ago", views[1].Uploaded)
	require.Equal(t, "other", views[2].Kind)
	require.Equal(t, "3.0 MB", views[2].DisplaySize)
	require.Equal(t, "Just now", views[2].Uploaded)

	require.Empty(t, attachmentViews(nil, now))
}

func TestAttachmentViewJSON(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	views := attachmentViews([]storage.Attachment{
		{ID: 1, MessageID: 9, FileName: "photo.png", FileType: "image/png",
			FileSize: 2048, URL: "/files/x", CreatedAt: now.Add(-time.Hour)},
	}, now)

	data, err := json.Marshal(views[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	// stored fields stay flat next to the display fields
	require.Equal(t, float64(9), decoded["message_id"])
	require.Equal(t, "image", decoded["kind"])
	require.Equal(t, "2.0 KB", decoded["display_size"])
	require.Equal(t, "1h ago", decoded["uploaded"])
}

func TestUploadAttachmentsValidation(t *testing.T) {
	h := bootstrapHandler(t)

	req, err := http.NewRequest("GET", "/attachments/add", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.uploadAttachments(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err = http.NewRequest("POST", "/attachments/add", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr = httptest.NewRecorder()
	h.uploadAttachments(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Form field \"message_id\" must be a valid message id\n", rr.Body.String())
}

func TestDownloadFile(t *testing.T) {
	h := bootstrapHandler(t)

	key, _, err := h.blobs.Save("notes.txt", strings.NewReader("file body"))
	require.NoError(t, err)

	req, err := http.NewRequest("GET", blob.PublicPath+key, nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.downloadFile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "file body", rr.Body.String())
	require.Contains(t, rr.Header().Get("Content-Disposition"), "notes.txt")
}

func TestDownloadFileSigned(t *testing.T) {
	h := bootstrapHandler(t)

	key, _, err := h.blobs.Save("notes.txt", strings.NewReader("file body"))
	require.NoError(t, err)

	signed, err := h.blobs.SignedURL(key)
	require.NoError(t, err)

	req, err := http.NewRequest("GET", signed, nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.downloadFile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req, err = http.NewRequest("GET", blob.PublicPath+key+"?expires=1&token=bad", nil)
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	h.downloadFile(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDownloadFileNotFound(t *testing.T) {
	h := bootstrapHandler(t)

	req, err := http.NewRequest("GET", blob.PublicPath+"no-such-key", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.downloadFile(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

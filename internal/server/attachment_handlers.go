package server

import (
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skillswap/internal/blob"
	"skillswap/internal/fileinfo"
	"skillswap/internal/storage"
)

const maxUploadBytes = 32 << 20

// attachmentView decorates a stored attachment with the display fields the
// file cards render: the classified kind, a human-readable size and a
// relative upload time.
type attachmentView struct {
	storage.Attachment
	Kind        string `json:"kind"`
	DisplaySize string `json:"display_size"`
	Uploaded    string `json:"uploaded"`
}

func attachmentViews(attachments []storage.Attachment, now time.Time) []attachmentView {
	views := make([]attachmentView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, attachmentView{
			Attachment:  a,
			Kind:        fileinfo.Classify(a.FileType).String(),
			DisplaySize: fileinfo.FormatSize(a.FileSize),
			Uploaded:    fileinfo.FormatRelative(a.CreatedAt, now),
		})
	}
	return views
}

// uploadAttachments handles multipart HTTP requests on the
// "/attachments/add" endpoint: every "file" part is streamed to the blob
// store first and linked to the message only after the bytes are safely
// down, so a failed upload never leaves a dangling attachment row.
// Registered outside the POST-JSON middleware because of the multipart body.
func (h *handler) uploadAttachments(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.Header().Set("Allow", "POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Malformed multipart form", http.StatusBadRequest)
		return
	}

	messageID, err := strconv.ParseInt(r.FormValue("message_id"), 10, 64)
	if err != nil || messageID < 1 {
		http.Error(w, "Form field \"message_id\" must be a valid message id", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "At least one \"file\" part is required", http.StatusBadRequest)
		return
	}

	// every blob goes down first; rows are linked afterwards in a single
	// transaction, so a failure anywhere leaves no attachment row behind
	newAttachments := make([]storage.NewAttachment, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			h.serverError(w, err)
			return
		}

		key, size, err := h.blobs.Save(header.Filename, f)
		f.Close()
		if err != nil {
			h.logger.Errorf("storing attachment blob: %v", err)
			http.Error(w, "Failed to store file", http.StatusInternalServerError)
			return
		}

		fileType := header.Header.Get("Content-Type")
		if fileType == "" {
			fileType = "application/octet-stream"
		}

		h.logger.Debugf("Stored %s attachment %q (%s)",
			fileinfo.Classify(fileType), header.Filename, fileinfo.FormatSize(size))

		newAttachments = append(newAttachments, storage.NewAttachment{
			MessageID: messageID,
			FileName:  header.Filename,
			FileType:  fileType,
			FileSize:  size,
			URL:       h.blobs.URL(key),
		})
	}

	attachments, err := h.store.CreateAttachments(r.Context(), newAttachments)
	if err != nil {
		if err == storage.ErrMessageNotExist {
			http.Error(w, "Message with provided id does not exist", http.StatusBadRequest)
			return
		}
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, attachmentViews(attachments, time.Now()))
}

// attachmentsByMessage handles HTTP requests on the "/attachments/get"
// endpoint.
func (h *handler) attachmentsByMessage(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.attachmentPool.Get()
	defer h.parsers.attachmentPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	message, msg := requireID(v, "message")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	attachments, err := h.store.AttachmentsByMessage(r.Context(), message)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, attachmentViews(attachments, time.Now()))
}

// attachmentURL handles HTTP requests on the "/attachments/url" endpoint,
// resolving a time-limited signed download URL.
func (h *handler) attachmentURL(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	parser := h.parsers.attachmentPool.Get()
	defer h.parsers.attachmentPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	id, msg := requireID(v, "attachment")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	attachment, err := h.store.AttachmentByID(r.Context(), id)
	if err != nil {
		switch err {
		case storage.ErrAttachmentNotExist:
			http.Error(w, "Attachment with provided id does not exist", http.StatusBadRequest)
			return
		default:
			h.serverError(w, err)
			return
		}
	}

	key := strings.TrimPrefix(attachment.URL, blob.PublicPath)
	signed, err := h.blobs.SignedURL(key)
	if err != nil {
		if err == blob.ErrNotExist {
			http.Error(w, "File is no longer available", http.StatusBadRequest)
			return
		}
		h.serverError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"url": signed})
}

// downloadFile serves stored blobs under the public files path. Signed
// query parameters are verified when present.
func (h *handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.Header().Set("Allow", "GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, blob.PublicPath)
	if key == "" {
		http.Error(w, "Missing file key", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("token") != "" || query.Get("expires") != "" {
		expires, err := strconv.ParseInt(query.Get("expires"), 10, 64)
		if err != nil || !h.blobs.Verify(key, expires, query.Get("token")) {
			http.Error(w, "Invalid or expired download token", http.StatusForbidden)
			return
		}
	}

	f, err := h.blobs.Open(key)
	if err != nil {
		if err == blob.ErrNotExist {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.serverError(w, err)
		return
	}
	defer f.Close()

	// object keys are "<uuid>-<original name>"
	name := key
	if len(key) > 37 {
		name = key[37:]
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")

	if _, err = io.Copy(w, f); err != nil {
		h.logger.Errorf("writing blob to ResponseWriter: %v", err)
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"texcollab/internal/document/model"
	"texcollab/internal/document/service"
	"texcollab/middleware"
	"texcollab/pkg/logger"
)

const maxSaveBody = 8 << 20

const saveRequestSchema = `{
	"type": "object",
	"required": ["content"],
	"properties": {
		"content": {"type": "string"},
		"base_version": {"type": "integer", "minimum": 0}
	}
}`

var saveSchema = compileSchema("./save-request.json", saveRequestSchema)

func compileSchema(location, source string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		panic(fmt.Sprintf("parse %s: %v", location, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(location, doc); err != nil {
		panic(fmt.Sprintf("add %s: %v", location, err))
	}
	return c.MustCompile(location)
}

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	userID, _ := middleware.UserFromContext(r.Context())

	doc, err := h.Service.LoadDocument(r.Context(), docID, userID)
	if err != nil {
		h.writeError(w, "load", docID, err)
		return
	}

	writeJSON(w, http.StatusOK, model.FetchResponse{
		Success: true,
		Content: &doc.Content,
		Version: &doc.Version,
		Title:   &doc.Title,
	})
}

func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	userID, _ := middleware.UserFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSaveBody+1))
	if err != nil || len(body) > maxSaveBody {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}
	if err := saveSchema.Validate(inst); err != nil {
		logger.Sugar.Infof("Rejected save body for doc %s: %v", docID, err)
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body: content must be a string"})
		return
	}
	// Decoded straight from the JSON string: backslashes arrive exactly as
	// the editor sent them and are stored without any extra escaping.
	var req model.SaveDocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	version, err := h.Service.SaveDocument(r.Context(), docID, userID, req.Content, req.BaseVersion)
	if err != nil {
		h.writeError(w, "save", docID, err)
		return
	}

	logger.Sugar.Infof("Document %s saved by user %s at version %d", docID, userID, version)
	writeJSON(w, http.StatusOK, model.SaveResponse{Success: true, Version: &version})
}

func (h *DocumentHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	userID, userName := middleware.UserFromContext(r.Context())

	entries, err := h.Service.Heartbeat(r.Context(), docID, userID, userName)
	if err != nil {
		h.writeError(w, "heartbeat", docID, err)
		return
	}

	writePresence(w, entries)
}

// ListPresence is the read-only variant of Heartbeat for viewers that should
// not show up as active themselves.
func (h *DocumentHandler) ListPresence(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	userID, _ := middleware.UserFromContext(r.Context())

	entries, err := h.Service.ActiveUsers(r.Context(), docID, userID)
	if err != nil {
		h.writeError(w, "list presence", docID, err)
		return
	}
	writePresence(w, entries)
}

func writePresence(w http.ResponseWriter, entries []model.PresenceEntry) {
	users := make([]model.ActiveUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, model.ActiveUser{UserID: e.UserID, Name: e.DisplayName, Timestamp: e.LastSeenAt.Unix()})
	}
	writeJSON(w, http.StatusOK, model.PresenceResponse{Success: true, ActiveUsers: &users})
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *DocumentHandler) writeError(w http.ResponseWriter, op, docID string, err error) {
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, model.ErrorResponse{Message: "Permission denied"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Message: "Document not found"})
	case errors.Is(err, model.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{Message: "Document was changed by someone else"})
	case errors.Is(err, model.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Message: err.Error()})
	default:
		logger.Sugar.Errorf("Handler: failed to %s document %s: %v", op, docID, err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Message: "Storage error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

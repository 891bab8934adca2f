// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/ottoman-converter/internal/convert"
	"github.com/pdiddy/ottoman-converter/internal/history"
	"github.com/pdiddy/ottoman-converter/internal/kb"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// Messages shown in place of a failed conversion.
const (
	HeavyLoadWarning   = "The system is not available right now due to heavy load. Please try again shortly."
	ConfigWarning      = "System configuration error: API key not set. Please set GOOGLE_API_KEY in secrets or environment."
	UnsupportedWarning = "The knowledge base file could not be used. Upload a .txt, .pdf, or .docx file."

	// FailedContent is stored in the transcript for a failed assistant turn.
	FailedContent = types.FailedContent
)

// kindBadRequest is the error kind for malformed API requests. It is not a
// conversion failure kind.
const kindBadRequest = "bad_request"

// formMaxMemory is how much of a multipart form is held in memory before
// spilling to disk.
const formMaxMemory = 8 << 20

// warningFor returns the user-facing warning for a failure kind.
func warningFor(kind types.FailureKind) string {
	switch kind {
	case types.FailureConfig:
		return ConfigWarning
	case types.FailureUnsupportedDocument:
		return UnsupportedWarning
	default:
		return HeavyLoadWarning
	}
}

// statusFor maps a failure kind to the JSON API status code.
func statusFor(kind types.FailureKind) int {
	switch {
	case kind == types.FailureUnsupportedDocument:
		return http.StatusBadRequest
	case kind.Retryable():
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// pageData is the chat template input.
type pageData struct {
	Session       types.Session
	Warning       string
	KnowledgeBase string
	Extensions    string
}

// handleIndex starts a session and redirects to its page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.CreateSession(r.Context())
	if err != nil {
		s.logger.Error("creating session", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

// handleSession renders the chat page for one session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	data := pageData{
		Session:    sess,
		Extensions: strings.Join(kb.Extensions(), ","),
	}
	if n := len(sess.Messages); n > 0 && sess.Messages[n-1].Failed() {
		data.Warning = warningFor(sess.Messages[n-1].FailureKind)
	}
	if s.cfg.Conversion.KnowledgeBase != "" {
		data.KnowledgeBase = filepath.Base(s.cfg.Conversion.KnowledgeBase)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("rendering chat page", zap.String("session", sess.ID), zap.Error(err))
	}
}

// handlePostMessage converts one chat message and appends the exchange to
// the session, then redirects back to the chat page.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(formMaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	if _, ok := s.loadSession(w, r); !ok {
		return
	}

	req := s.conversionRequest(text)
	if v := r.FormValue("force_ng_final"); v != "" {
		req.ForceNGFinal = v != "false"
	}

	output, err := s.convertWithUpload(r, req)

	reply := types.Message{Role: types.RoleAssistant, Content: output}
	if err != nil {
		kind := convert.KindOf(err)
		s.logger.Warn("conversion failed",
			zap.String("session", id),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		reply = types.FailedReply(kind)
	}

	user := types.Message{Role: types.RoleUser, Content: text}
	if err := s.store.Append(ctx, id, user, reply); err != nil {
		s.logger.Error("saving messages", zap.String("session", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/sessions/"+id, http.StatusSeeOther)
}

// convertWithUpload runs req, using the uploaded knowledge_base file when
// one was sent. The staged upload is removed before returning.
func (s *Server) convertWithUpload(r *http.Request, req types.ConversionRequest) (string, error) {
	file, header, err := r.FormFile("knowledge_base")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return s.conv.Convert(r.Context(), req)
	case err != nil:
		return "", &convert.Error{Kind: types.FailureUnsupportedDocument, Detail: err.Error(), Err: err}
	}
	defer file.Close()

	path, cleanup, err := kb.Stage(file, header.Filename)
	if err != nil {
		return "", &convert.Error{Kind: types.FailureUnsupportedDocument, Detail: err.Error(), Err: err}
	}
	defer cleanup()

	req.KnowledgeBasePath = path
	return s.conv.Convert(r.Context(), req)
}

// apiConvertRequest is the POST /api/convert body. Unset fields take the
// server defaults.
type apiConvertRequest struct {
	Text         string   `json:"text"`
	ForceNGFinal *bool    `json:"force_ng_final,omitempty"`
	Normalize    *bool    `json:"normalize,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Model        string   `json:"model,omitempty"`
}

type apiConvertResponse struct {
	Output string `json:"output"`
}

type apiError struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

// handleAPIConvert handles POST /api/convert.
func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	var body apiConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, kindBadRequest, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, kindBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		s.writeError(w, http.StatusBadRequest, kindBadRequest, "text is required")
		return
	}

	req := s.conversionRequest(text)
	if body.ForceNGFinal != nil {
		req.ForceNGFinal = *body.ForceNGFinal
	}
	if body.Normalize != nil {
		req.Normalize = *body.Normalize
	}
	if body.Temperature != nil {
		if *body.Temperature < 0 || *body.Temperature > 2 {
			s.writeError(w, http.StatusBadRequest, kindBadRequest, "temperature must be between 0 and 2")
			return
		}
		req.Temperature = *body.Temperature
	}
	if body.Model != "" {
		req.Model = body.Model
	}

	output, err := s.conv.Convert(r.Context(), req)
	if err != nil {
		kind := convert.KindOf(err)
		s.logger.Warn("api conversion failed", zap.String("kind", string(kind)), zap.Error(err))
		s.writeError(w, statusFor(kind), string(kind), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, apiConvertResponse{Output: output})
}

// handleAPISession handles GET /api/sessions/{id}.
func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Session(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		s.logger.Error("loading session", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal", "could not load session")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// conversionRequest fills a request from the server defaults.
func (s *Server) conversionRequest(text string) types.ConversionRequest {
	return types.ConversionRequest{
		Text:              text,
		KnowledgeBasePath: s.cfg.Conversion.KnowledgeBase,
		Model:             s.cfg.AI.Model,
		Temperature:       s.cfg.AI.Temperature,
		Normalize:         s.cfg.Conversion.Normalize,
		ForceNGFinal:      s.cfg.Conversion.ForceNGFinal,
	}
}

// loadSession fetches the {id} session, writing 404 or 500 when it cannot.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (types.Session, bool) {
	sess, err := s.store.Session(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		http.NotFound(w, r)
		return types.Session{}, false
	}
	if err != nil {
		s.logger.Error("loading session", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return types.Session{}, false
	}
	return sess, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, detail string) {
	s.writeJSON(w, status, apiErrorResponse{Error: apiError{Kind: kind, Detail: detail}})
}

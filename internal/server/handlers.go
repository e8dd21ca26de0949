package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/docchat/docchat/internal/chat"
	"github.com/docchat/docchat/internal/extract"
	"github.com/docchat/docchat/internal/models"
	"github.com/docchat/docchat/internal/storage"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 32 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Doc Chat backend is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat answers one question for a session. The session id travels as a
// query parameter and is validated before the body, so a missing id is a 422
// even when the body is also bad.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.respondDetail(w, http.StatusUnprocessableEntity, "session_id query parameter is required")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.chat.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyQuestion):
			s.respondDetail(w, http.StatusBadRequest, "Question is required")
		case errors.Is(err, chat.ErrMissingSession):
			s.respondDetail(w, http.StatusUnprocessableEntity, "session_id query parameter is required")
		default:
			s.logger.Error("chat failed", zap.String("session_id", sessionID), zap.Error(err))
			s.respondDetail(w, http.StatusInternalServerError, "failed to answer question")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, models.ChatResponse{Answer: answer})
}

// handleUpload stores one uploaded document under its unique filename. An
// unrecognized extension answers 200 with an error payload, matching the
// observed contract rather than a 4xx.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondDetail(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.extractor.Supported(ext) {
		s.respondJSON(w, http.StatusOK, map[string]string{"error": "Unsupported file type"})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		s.respondDetail(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(content) > maxUploadBytes {
		s.respondDetail(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	text, err := s.extractor.ExtractBytes(content, ext)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			s.respondJSON(w, http.StatusOK, map[string]string{"error": "Unsupported file type"})
			return
		}
		s.logger.Error("extraction failed", zap.String("file", header.Filename), zap.Error(err))
		s.respondDetail(w, http.StatusInternalServerError, "failed to extract document text")
		return
	}

	doc := &models.Document{Name: header.Filename, Content: text}
	if err := s.storage.CreateDocument(r.Context(), doc); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			s.respondDetail(w, http.StatusConflict, "a document with this name already exists")
			return
		}
		s.logger.Error("store document failed", zap.String("file", header.Filename), zap.Error(err))
		s.respondDetail(w, http.StatusInternalServerError, "failed to save document")
		return
	}
	s.logger.Info("document uploaded", zap.String("file", header.Filename), zap.Int("chars", len(text)))
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "File uploaded and saved."})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":         docCount,
		"chunks":            chunkCount,
		"vector_index_size": s.retriever.IndexSize(),
		"config": map[string]interface{}{
			"docs_folder":     s.config.Docs.Folder,
			"chunk_size":      s.config.Chunking.ChunkSize,
			"chunk_overlap":   s.config.Chunking.ChunkOverlap,
			"embedding_model": s.config.Provider.EmbeddingModel,
			"chat_model":      s.config.Provider.ChatModel,
			"top_k":           s.config.Retrieval.TopK,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondDetail writes an error payload under the "detail" key, the shape the
// chat frontend expects for every non-2xx response.
func (s *Server) respondDetail(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"detail": message})
}

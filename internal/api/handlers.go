package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/analysis"
	"github.com/ritheshsuvarna/natya/internal/apperr"
	"github.com/ritheshsuvarna/natya/internal/models"
	"github.com/ritheshsuvarna/natya/internal/storage"
	"github.com/ritheshsuvarna/natya/internal/store"
)

const (
	apiMessage = "Bharatanatyam AI Story Generator API"
	apiVersion = "1.0.0"

	multipartMemory = 32 << 20
)

type App struct {
	Service       *analysis.Service
	MaxUploadSize int64
	CORSOrigins   []string
}

// corsOptions allows credentials for every configured origin. A wildcard echoes the
// request origin, since browsers reject a literal "*" on credentialed responses.
func (app *App) corsOptions() cors.Options {
	options := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	origins := app.CORSOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		options.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		options.AllowedOrigins = origins
	}
	return options
}

type uploadResponse struct {
	VideoID  string              `json:"video_id"`
	Filename string              `json:"filename"`
	Analysis models.AnalysisData `json:"analysis"`
	Status   models.Status       `json:"status"`
}

type storyRequest struct {
	AnalysisID string `json:"analysis_id"`
}

type storyResponse struct {
	Story      string `json:"story"`
	AnalysisID string `json:"analysis_id"`
}

type listResponse struct {
	Analyses []*models.AnalysisRecord `json:"analyses"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": apiMessage,
		"version": apiVersion,
	})
}

func (app *App) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	if app.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "File too large (limit "+humanize.IBytes(uint64(maxErr.Limit))+")")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	log.Infof("Received upload %s (%s, %s)", header.Filename, header.Header.Get("Content-Type"),
		humanize.Bytes(uint64(header.Size)))

	record, err := app.Service.Upload(r.Context(), file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		VideoID:  record.ID,
		Filename: record.VideoFilename,
		Analysis: record.AnalysisData,
		Status:   record.Status,
	})
}

func (app *App) GenerateStoryHandler(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	story, err := app.Service.GenerateStory(r.Context(), req.AnalysisID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, storyResponse{Story: story, AnalysisID: req.AnalysisID})
}

func (app *App) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	record, err := app.Service.Get(r.Context(), videoID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (app *App) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	records := app.Service.List(r.Context(), store.DefaultListLimit)
	writeJSON(w, http.StatusOK, listResponse{Analyses: records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps service errors to their HTTP status. Not-found and invalid-input
// details are user facing; anything else is logged with its cause.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	switch status {
	case http.StatusNotFound:
		writeDetail(w, status, "Analysis not found")
	case http.StatusBadRequest:
		writeDetail(w, status, "File must be a video")
	default:
		log.Errorf("Request failed: %v", err)
		writeDetail(w, status, err.Error())
	}
}

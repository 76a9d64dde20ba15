package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/internal/gallery"
	"github.com/hikinggallery/gallery-api/internal/store"
	"github.com/hikinggallery/gallery-api/models"
)

type ImagesRequest struct {
	ImageIDs []string `json:"imageIds"`
	Skip     int      `json:"skip"`
	Limit    int      `json:"limit"`
}

func FoldersHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	lists, err := svc.ListNonEmptyFoldersByRecency(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	if lists == nil {
		lists = []models.ImageList{}
	}
	respondJSON(w, lists)
}

// ImagesHandler resolves the requested id set with pagination, serving the
// 1024px variant as the display location where one exists.
func ImagesHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	var req ImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	images, err := svc.FindImages(r.Context(), req.ImageIDs, req.Skip, req.Limit)
	if err != nil {
		respondError(w, log, err)
		return
	}
	out := make([]models.Image, 0, len(images))
	for _, img := range images {
		img.Location = img.PreferredLocation()
		out = append(out, img)
	}
	respondJSON(w, out)
}

// TimelineHandler serves the selected timeline partitions from the cache,
// recomputing live when the cache is cold. The fallback does not warm the
// cache; only an explicit rebuild does.
func TimelineHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, cache *gallery.Cache, head, tail bool, log *zap.Logger) {
	items := cache.Get(head, tail)
	if cache.Empty() {
		var err error
		items, err = svc.BuildTimeline(r.Context(), head, tail)
		if err != nil {
			respondError(w, log, err)
			return
		}
	}
	if items == nil {
		items = []models.TimelineItem{}
	}
	respondJSON(w, items)
}

// TimelineImagesHandler resolves ids against the cached image index, falling
// back to the live lookup when the cache is cold.
func TimelineImagesHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, cache *gallery.Cache, log *zap.Logger) {
	var req ImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if cache.Empty() {
		images, err := svc.FindImages(r.Context(), req.ImageIDs, req.Skip, req.Limit)
		if err != nil {
			respondError(w, log, err)
			return
		}
		for i := range images {
			images[i].Location = images[i].PreferredLocation()
		}
		respondJSON(w, images)
		return
	}
	images := cache.GetImages(req.ImageIDs, req.Skip, req.Limit)
	if images == nil {
		images = []models.Image{}
	}
	respondJSON(w, images)
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	log.Error("request failed", zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

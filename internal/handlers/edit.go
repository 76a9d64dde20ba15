package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/internal/gallery"
	"github.com/hikinggallery/gallery-api/models"
)

type UpdateListNameRequest struct {
	ListName string `json:"listName"`
}

type UpdateImageDescriptionRequest struct {
	Description string `json:"description"`
}

type AddImageRequest struct {
	ListID   string `json:"listId"`
	Location string `json:"location"`
}

type SignedURLRequest struct {
	ListID string `json:"listId"`
}

type ImportFolderRequest struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

func EditDataHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	data, err := svc.EditPageData(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	respondJSON(w, data)
}

func AddListHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	var list models.ImageList
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := svc.AddList(r.Context(), &list); err != nil {
		respondError(w, log, err)
		return
	}
	respondJSON(w, list)
}

func UpdateListNameHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	listID := chi.URLParam(r, "listId")
	var req UpdateListNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := svc.UpdateListName(r.Context(), listID, req.ListName); err != nil {
		respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func DeleteListHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	listID := chi.URLParam(r, "listId")
	cascade := r.URL.Query().Get("cascade") == "true"
	if err := svc.DeleteList(r.Context(), listID, cascade); err != nil {
		respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func DeleteImageHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	listID := chi.URLParam(r, "listId")
	imageID := chi.URLParam(r, "imageId")
	if err := svc.DeleteImage(r.Context(), listID, imageID); err != nil {
		respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func AddImageHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	var req AddImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	image, err := svc.AddImageFromStorage(r.Context(), req.ListID, req.Location)
	if err != nil {
		respondError(w, log, err)
		return
	}
	respondJSON(w, image)
}

func SignedURLHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	var req SignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	url, err := svc.SignedUploadURL(r.Context(), req.ListID)
	if err != nil {
		respondError(w, log, err)
		return
	}
	respondJSON(w, map[string]string{"url": url})
}

func UpdateImageDescriptionHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	imageID := chi.URLParam(r, "imageId")
	var req UpdateImageDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := svc.UpdateImageDescription(r.Context(), imageID, req.Description); err != nil {
		respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func ImportFolderHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, log *zap.Logger) {
	var req ImportFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	list, err := svc.ImportFolder(r.Context(), req.Prefix, req.Name)
	if err != nil {
		respondError(w, log, err)
		return
	}
	respondJSON(w, list)
}

// RebuildCacheHandler repopulates the timeline cache. Population is explicit
// and synchronous; nothing rebuilds in the background.
func RebuildCacheHandler(w http.ResponseWriter, r *http.Request, svc *gallery.Service, cache *gallery.Cache, log *zap.Logger) {
	if err := cache.Rebuild(r.Context(), svc); err != nil {
		respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

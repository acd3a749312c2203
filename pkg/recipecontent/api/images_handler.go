package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

// multipart framing allowed on top of the image itself
const multipartOverhead = 1 << 20

// ImagesHandler exposes recipe image storage over HTTP
type ImagesHandler struct {
	service recipecontent.Service
}

func NewImagesHandler(service recipecontent.Service) *ImagesHandler {
	return &ImagesHandler{service: service}
}

// Routes returns the router for recipe image endpoints
func (h *ImagesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/{recipeUUID}/image", h.StoreImage)
	r.Get("/{recipeUUID}/image", h.GetImageURL)
	r.Delete("/{recipeUUID}/image", h.RemoveImage)
	return r
}

// ImageURLResponse carries a download reference for a recipe image
type ImageURLResponse struct {
	URL string `json:"url"`
}

// StoreImage uploads the multipart "file" field as the recipe's image. Every
// precondition, including size, is decided by the service.
func (h *ImagesHandler) StoreImage(w http.ResponseWriter, r *http.Request) {
	recipeUUID := chi.URLParam(r, "recipeUUID")

	r.Body = http.MaxBytesReader(w, r.Body, recipecontent.MaxImageSize+multipartOverhead)
	file, err := readFilePart(r, "file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		// the service reports the nil file as a missing argument
		slog.Warn("Failed to read upload", "recipe_uuid", recipeUUID, "error", err)
	}

	meta, err := h.service.StoreRecipeImage(r.Context(), file, recipeUUID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, meta)
}

// GetImageURL returns a download URL for the recipe's image
func (h *ImagesHandler) GetImageURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.GetReferenceToUploadedFile(r.Context(), chi.URLParam(r, "recipeUUID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ImageURLResponse{URL: url})
}

// RemoveImage deletes the recipe's image
func (h *ImagesHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveImage(r.Context(), chi.URLParam(r, "recipeUUID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readFilePart buffers the named file part of a multipart body, up to
// MaxImageSize bytes. A larger part comes back with its declared type, no
// content and a Size of MaxImageSize+1, so the service rejects it only after
// its argument, authentication and type checks.
func readFilePart(r *http.Request, field string) (*recipecontent.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.ErrMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}
		defer part.Close()

		file := &recipecontent.File{
			Name: part.FileName(),
			Type: part.Header.Get("Content-Type"),
		}

		data, err := io.ReadAll(io.LimitReader(part, recipecontent.MaxImageSize+1))
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
		case err != nil:
			return nil, err
		case int64(len(data)) <= recipecontent.MaxImageSize:
			file.Size = int64(len(data))
			file.Body = bytes.NewReader(data)
			return file, nil
		default:
			// drain up to the body limit so the client sees the response
			_, _ = io.Copy(io.Discard, part)
		}

		file.Size = recipecontent.MaxImageSize + 1
		file.Body = bytes.NewReader(nil)
		return file, nil
	}
}

package api

import (
	"encoding/json"
	"net/http"

	gocache "github.com/patrickmn/go-cache"
)

// serveCached writes a previously cached detail response if one exists.
// Staff requests bypass the cache so they always see fresh state.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request) bool {
	if isStaff(r) {
		return false
	}

	cached, found := h.detailCache.Get(r.URL.Path)
	if !found {
		return false
	}

	body, ok := cached.([]byte)
	if !ok {
		return false
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(body)

	return true
}

// respondDetail writes a success envelope and caches it for anonymous
// readers.
func (h *Handler) respondDetail(w http.ResponseWriter, r *http.Request, data any) {
	body, err := json.Marshal(envelope{Status: "success", Data: data})
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	if !isStaff(r) {
		h.detailCache.Set(r.URL.Path, body, gocache.DefaultExpiration)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(body)
}

func (h *Handler) invalidatePost(slug string) {
	h.detailCache.Delete(apiPrefix + "/posts/" + slug)
}

func (h *Handler) invalidateProject(slug string) {
	h.detailCache.Delete(apiPrefix + "/projects/" + slug)
}

package api

import "net/http"

type siteResponse struct {
	SiteHeader string `json:"site_header"`
	SiteTitle  string `json:"site_title"`
}

// HandleAdminSite reports the display settings staff tooling shows in
// its chrome.
func (h *Handler) HandleAdminSite() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondSuccess(w, http.StatusOK, siteResponse{
			SiteHeader: h.admin.SiteHeader,
			SiteTitle:  h.admin.SiteTitle,
		}, "")
	})
}

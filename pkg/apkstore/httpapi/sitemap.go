package httpapi

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap renders a sitemap.xml with the store root plus one entry per
// live slug. Intended to be mounted at the server root, not under /api.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(h.cfg.PublicBaseURL, "/")

	apks, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("sitemap listing failed", "error", err)
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}

	set := sitemapURLSet{
		Xmlns: sitemapNamespace,
		URLs:  make([]sitemapURL, 0, len(apks)+1),
	}
	set.URLs = append(set.URLs, sitemapURL{Loc: base + "/"})
	for _, apk := range apks {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + "/apk/" + apk.Slug,
			LastMod: apk.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(set); err != nil {
		h.logger.Error("sitemap encoding failed", "error", err)
	}
}

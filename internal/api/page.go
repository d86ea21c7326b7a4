package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/viewer"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	// Viewer markup is produced by the render package from configured
	// documents, never from request input.
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Menu     *nav.Menu
	Snapshot viewer.Snapshot
}

// handlePage renders the viewer page. A topic in the query string is loaded
// before the page is rendered, so links and reloads show content directly.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := s.session(w, r)

	if topic := nav.TopicFromLabel(r.URL.Query().Get("topic")); topic != "" {
		if _, _, err := s.orchestrator.Select(r.Context(), st, topic); err != nil {
			s.log.Warn("initial topic load aborted", "topic", topic, "error", err)
		}
	}

	data := pageData{Menu: s.orchestrator.Menu(), Snapshot: st.Snapshot()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error("render page", "error", err)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	md2codelab "github.com/alnah/go-md2codelab"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if u := r.URL.Query().Get("url"); u != "" {
		http.Redirect(w, r, "/convert?url="+url.QueryEscape(u), http.StatusFound)
		return
	}
	s.renderPage(w, s.index, http.StatusOK, struct{ AllowedPrefix string }{s.allowedPrefix})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var source string
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := r.ParseForm(); err != nil {
			writeText(w, http.StatusBadRequest, "invalid form submission")
			return
		}
		source = r.PostForm.Get("url")
	} else {
		source = r.URL.Query().Get("url")
	}

	// A client that disconnects must not cancel a conversion other
	// requests may be waiting on; the fetch timeout still bounds it.
	rec, err := s.svc.Convert(context.WithoutCancel(r.Context()), source)
	if err != nil {
		s.writeConvertError(w, source, err)
		return
	}

	s.log.Info("codelab.converted", "url", rec.OriginalURL, "id", rec.ConvertedID)
	http.Redirect(w, r, "/view/"+rec.ConvertedID, http.StatusFound)
}

// writeConvertError maps conversion failures to status codes and messages.
func (s *Server) writeConvertError(w http.ResponseWriter, source string, err error) {
	switch {
	case errors.Is(err, md2codelab.ErrEmptyURL):
		writeText(w, http.StatusBadRequest, "Please provide a Markdown file URL")
	case errors.Is(err, md2codelab.ErrInvalidURLPrefix):
		writeText(w, http.StatusBadRequest, "URL must start with "+s.allowedPrefix)
	case errors.Is(err, md2codelab.ErrFetchNotFound):
		writeText(w, http.StatusNotFound, "Markdown file not found")
	case errors.Is(err, md2codelab.ErrEmptyDocument):
		writeText(w, http.StatusBadRequest, "No valid steps found (a ## heading is required)")
	case errors.Is(err, md2codelab.ErrFetchFailed):
		s.log.Warn("codelab.fetch_failed", "url", source, "error", err.Error())
		writeText(w, http.StatusBadRequest, "Cannot reach the provided URL, check that it is correct")
	default:
		s.log.Error("codelab.convert_failed", "url", source, "error", err.Error())
		writeText(w, http.StatusInternalServerError, "Conversion failed")
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := s.svc.View(r.Context(), id)
	if errors.Is(err, md2codelab.ErrNotFound) {
		s.renderPage(w, s.notFound, http.StatusNotFound, struct{ ID string }{id})
		return
	}
	if err != nil {
		s.log.Error("codelab.view_failed", "id", id, "error", err.Error())
		writeText(w, http.StatusInternalServerError, "Failed to load content")
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rec.HTML))
}

type viewRow struct {
	ID       string
	Title    string
	URL      string
	ShortURL string
	Created  string
	Accessed string
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.List(r.Context(), s.viewsLimit)
	if err != nil {
		s.log.Error("codelab.list_failed", "error", err.Error())
		writeText(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows := make([]viewRow, 0, len(recs))
	for _, rec := range recs {
		title := rec.Title
		if title == "" {
			title = "Untitled"
		}
		rows = append(rows, viewRow{
			ID:       rec.ConvertedID,
			Title:    title,
			URL:      rec.OriginalURL,
			ShortURL: shortenURL(rec.OriginalURL, shortURLLength),
			Created:  s.dates.Format(rec.CreatedAt),
			Accessed: s.dates.Format(rec.AccessedAt),
		})
	}

	s.renderPage(w, s.views, http.StatusOK, struct{ Rows []viewRow }{rows})
}

// shortenURL truncates u to n runes, marking the cut with an ellipsis.
func shortenURL(u string, n int) string {
	runes := []rune(u)
	if len(runes) <= n {
		return u
	}
	return string(runes[:n]) + "..."
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}{
		Status:    "ok",
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// renderPage executes tmpl into a buffer so a failure can still produce a
// clean 500.
func (s *Server) renderPage(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.log.Error("page.render_failed", "template", tmpl.Name(), "error", err.Error())
		writeText(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(strings.TrimSpace(msg)))
}

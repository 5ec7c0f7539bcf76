package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"ledger/internal/auth"
	"ledger/internal/controller"
	"ledger/internal/core"
	"ledger/internal/derive"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/render"
	"ledger/internal/storage"
)

type pageData struct {
	Title    string
	Page     string
	User     *storage.User
	Body     template.HTML
	Footnote string
}

var pageTitles = map[string]string{
	"index":    "Учет продукции",
	"login":    "Вход",
	"register": "Регистрация",
	"admin":    "Администрирование",
	"report":   "Отчет",
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page string, user *storage.User) {
	s.renderTemplate(w, r, "page.html", pageData{Title: pageTitles[page], Page: page, User: user})
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template render failed", err, log.ComponentRender, log.OpRender, log.NewFields())
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type discardSaver struct{}

func (discardSaver) Save([]core.Transaction) {}

// reportQuery holds the optional view parameters of /report.
type reportQuery struct {
	filter derive.Filter
	sort   derive.SortKey
	year   int
	month  time.Month
}

func parseReportQuery(r *http.Request, now time.Time) (reportQuery, error) {
	q := r.URL.Query()
	out := reportQuery{year: now.Year(), month: now.Month()}

	var err error
	if out.filter, err = derive.ParseFilter(q.Get("filter")); err != nil {
		return out, err
	}
	if out.sort, err = derive.ParseSortKey(q.Get("sort")); err != nil {
		return out, err
	}
	if v := q.Get("year"); v != "" {
		if out.year, err = strconv.Atoi(v); err != nil || out.year < 1 {
			return out, core.Invalid("year", "must be a positive number")
		}
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return out, core.Invalid("month", "must be 1-12")
		}
		out.month = time.Month(m)
	}
	return out, nil
}

// handleReport renders the caller's ledger as an HTML report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := auth.ClaimsFromContext(ctx)

	q, err := parseReportQuery(r, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidReportArg)
		return
	}
	records, err := s.ledgers.Load(ctx, claims.UserID)
	if err != nil {
		s.structured.LogError(ctx, "Failed to load ledger", err, log.ComponentStorage, log.OpLoad, log.NewFields().WithUser(claims.UserID))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	store := ledger.New()
	store.ReplaceAll(records)
	ctrl := controller.New(store, discardSaver{},
		controller.WithLogger(s.logger),
		controller.WithClock(s.now))
	ctrl.ChangeFilter(q.filter)
	ctrl.ChangeSort(q.sort)
	ctrl.SetMonth(q.year, q.month)

	body, err := render.HTML(render.Markdown(ctrl.Snapshot(), ctrl.Today()))
	if err != nil {
		s.structured.LogError(ctx, "Report render failed", err, log.ComponentRender, log.OpRender, log.NewFields().WithUser(claims.UserID))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.renderTemplate(w, r, "report.html", pageData{
		Title:    pageTitles["report"],
		Page:     "report",
		User:     &storage.User{ID: claims.UserID, Username: claims.Username, IsAdmin: claims.IsAdmin},
		Body:     template.HTML(body),
		Footnote: render.FormatDate(ctrl.Today()),
	})
}

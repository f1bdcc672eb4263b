package admin

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/internal/observability/metrics"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format("Jan 2, 2006, 03:04 PM") },
	"dash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}

var pages = map[string]*template.Template{
	"list":    parsePage("list.html"),
	"detail":  parsePage("detail.html"),
	"confirm": parsePage("confirm.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Handler serves the server-rendered console. Every request builds its own
// Console over the shared repository.
type Handler struct {
	repo    leads.Repository
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
}

// NewHandler creates the console handler.
func NewHandler(repo leads.Repository, logger *logging.Logger, m *metrics.LeadMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger, metrics: m}
}

func (h *Handler) console() *Console {
	return NewConsole(h.repo, h.logger, h.metrics)
}

type listPage struct {
	Items       []*leads.Lead
	Total       int
	Statuses    []leads.Status
	FilterValue string
	Error       string
	LoadFailed  bool
}

type leadPage struct {
	Lead   *leads.Lead
	Prompt string
	Error  string
}

// List handles GET /admin.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := parseFilter(r.URL.Query().Get("status"))
	if !ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	c := h.console()
	_ = c.LoadList(r.Context(), status)
	h.render(w, "list", http.StatusOK, listPageFrom(c.Snapshot()))
}

// Detail handles GET /admin/leads/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	lead, err := h.console().Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderLeadError(w, "detail", err)
		return
	}
	h.render(w, "detail", http.StatusOK, leadPage{Lead: lead})
}

// UpdateStatus handles POST /admin/leads/{id}/status. The list is loaded
// first so a failed write is shown with the row reverted.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	status, err := leads.ParseStatus(r.PostFormValue("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter, _ := parseFilter(r.PostFormValue("filter"))

	c := h.console()
	if err := c.LoadList(r.Context(), filter); err != nil {
		h.render(w, "list", http.StatusServiceUnavailable, listPageFrom(c.Snapshot()))
		return
	}
	if err := c.ChangeStatus(r.Context(), id, status); err != nil {
		page := listPageFrom(c.Snapshot())
		page.Error = "Failed to update status"
		h.render(w, "list", statusFor(err), page)
		return
	}
	http.Redirect(w, r, listURL(filter), http.StatusSeeOther)
}

// ConfirmDelete handles GET /admin/leads/{id}/delete.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	lead, err := h.console().Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderLeadError(w, "confirm", err)
		return
	}
	h.render(w, "confirm", http.StatusOK, leadPage{Lead: lead, Prompt: DeletePrompt})
}

// Delete handles POST /admin/leads/{id}/delete. Only confirm=yes deletes.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	c := h.console()

	attempted, err := c.Remove(r.Context(), id, Answer(r.PostFormValue("confirm") == "yes"))
	if !attempted {
		http.Redirect(w, r, "/admin/leads/"+url.PathEscape(id), http.StatusSeeOther)
		return
	}
	if err != nil {
		page := leadPage{Prompt: DeletePrompt, Error: "Failed to delete submission"}
		if lead, getErr := c.Open(r.Context(), id); getErr == nil {
			page.Lead = lead
		}
		h.render(w, "confirm", statusFor(err), page)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) renderLeadError(w http.ResponseWriter, page string, err error) {
	msg := "Failed to load submission"
	if errors.Is(err, leads.ErrNotFound) {
		msg = "Submission not found"
	} else {
		h.logger.Error("failed to load submission", "error", err)
	}
	h.render(w, page, statusFor(err), leadPage{Error: msg})
}

func (h *Handler) render(w http.ResponseWriter, page string, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages[page].Execute(w, data); err != nil {
		h.logger.Error("failed to render admin page", "error", err, "page", page)
	}
}

func listPageFrom(v View) listPage {
	page := listPage{
		Items:    v.Items,
		Total:    v.Total,
		Statuses: leads.Statuses,
	}
	if v.Filter != nil {
		page.FilterValue = string(*v.Filter)
	}
	if v.LoadErr != nil {
		page.Error = LoadFailedMessage
		page.LoadFailed = true
	}
	return page
}

// parseFilter treats empty as no filter and rejects unknown statuses.
func parseFilter(raw string) (*leads.Status, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	s, err := leads.ParseStatus(raw)
	if err != nil {
		return nil, false
	}
	return &s, true
}

func listURL(filter *leads.Status) string {
	if filter == nil {
		return "/admin"
	}
	return "/admin?status=" + url.QueryEscape(string(*filter))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, leads.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, leads.ErrStoreRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
	mw "github.com/jisap/threads-clone/internal/middleware"
	"github.com/jisap/threads-clone/internal/utils"
)

// CommonTemplateData is available in every page as .Common.
type CommonTemplateData struct {
	Error      string
	User       *domain.User // nil for anonymous visitors and during onboarding
	SignedIn   bool
	CSRFToken  string
	SignInURL  string
	Validation ValidationData
}

type ValidationData struct {
	ThreadTextMinLen int
	ThreadTextMaxLen int
	NameMinLen       int
	NameMaxLen       int
	BioMaxLen        int
	MaxFileSize      int64
	AllowedMimeTypes []string
}

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

// ThreadCard is a thread prepared for rendering.
type ThreadCard struct {
	Id        string
	HTML      template.HTML
	Author    domain.AuthorSummary
	Community *domain.CommunitySummary
	CreatedAt time.Time
	Comments  []*ThreadCard
	IsComment bool
	CanDelete bool
}

// Pagination links a page of results to its neighbours, keeping the other query params.
type Pagination struct {
	Path   string
	Query  url.Values
	Page   int
	IsNext bool
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }

func (p Pagination) PrevURL() string { return p.pageURL(p.Page - 1) }

func (p Pagination) NextURL() string { return p.pageURL(p.Page + 1) }

func (p Pagination) pageURL(page int) string {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return p.Path
	}
	return p.Path + "?" + q.Encode()
}

func (h *Handler) getTemplate(name string) (*template.Template, bool) {
	tmpl, ok := h.Templates[name]
	return tmpl, ok
}

func (h *Handler) initCommonTemplateData(r *http.Request) CommonTemplateData {
	v := h.Public.Validation
	return CommonTemplateData{
		Error:     r.URL.Query().Get("error"),
		User:      getUser(r),
		SignedIn:  mw.GetIdentity(r) != nil,
		CSRFToken: mw.GetCSRFTokenFromContext(r),
		SignInURL: h.Public.Auth.SignInURL,
		Validation: ValidationData{
			ThreadTextMinLen: v.ThreadTextMinLen,
			ThreadTextMaxLen: v.ThreadTextMaxLen,
			NameMinLen:       v.NameMinLen,
			NameMaxLen:       v.NameMaxLen,
			BioMaxLen:        v.BioMaxLen,
			MaxFileSize:      h.Public.Upload.MaxFileSize,
			AllowedMimeTypes: h.Public.Upload.AllowedMimeTypes,
		},
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateWithError(w, r, http.StatusOK, name, data, "")
}

func (h *Handler) renderTemplateWithError(w http.ResponseWriter, r *http.Request, status int, name string, data any, errMsg string) {
	tmpl, ok := h.getTemplate(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(r)
	if errMsg != "" {
		common.Error = errMsg
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.FromContext(r.Context()).Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows the error page with the status carried by err.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := internal_errors.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	data := struct {
		Status int
		Title  string
	}{status, http.StatusText(status)}
	h.renderTemplateWithError(w, r, status, "error.html", data, utils.ClientMessage(err))
}

// redirectWithError sends the visitor back to target with a message shown by the page.
func redirectWithError(w http.ResponseWriter, r *http.Request, target string, err error) {
	u, parseErr := url.Parse(target)
	if parseErr != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("error", utils.ClientMessage(err))
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// localPath returns next when it is a path on this site, fallback otherwise.
func localPath(next, fallback string) string {
	if len(next) == 0 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *Handler) renderThread(view domain.ThreadView, viewer *domain.User) *ThreadCard {
	card := &ThreadCard{
		Id:        view.Id.Hex(),
		HTML:      h.TextProcessor.Render(view.Text),
		Author:    view.Author,
		Community: view.Community,
		CreatedAt: view.CreatedAt,
		IsComment: view.IsComment(),
		CanDelete: viewer != nil && viewer.Id == view.Author.Id,
		Comments:  make([]*ThreadCard, len(view.Children)),
	}
	for i, child := range view.Children {
		card.Comments[i] = h.renderThread(child, viewer)
	}
	return card
}

func (h *Handler) renderThreads(views []domain.ThreadView, viewer *domain.User) []*ThreadCard {
	cards := make([]*ThreadCard, len(views))
	for i, view := range views {
		cards[i] = h.renderThread(view, viewer)
	}
	return cards
}

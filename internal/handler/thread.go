package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	mw "github.com/jisap/threads-clone/internal/middleware"
	"github.com/jisap/threads-clone/internal/utils"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	result, err := h.Threads.FetchPosts(r.Context(), page, h.Public.Pagination.ThreadsPerPage)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Threads    []*ThreadCard
		Pagination Pagination
	}
	templateData.Threads = h.renderThreads(result.Posts, getUser(r))
	templateData.Pagination = Pagination{Path: "/", Page: page, IsNext: result.IsNext}

	h.renderTemplate(w, r, "home.html", templateData)
}

func (h *Handler) ThreadGetHandler(w http.ResponseWriter, r *http.Request) {
	thread, err := h.Threads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Thread   *ThreadCard
		ParentId string // set when the thread is itself a comment
	}
	templateData.Thread = h.renderThread(thread, getUser(r))
	if thread.ParentId != nil {
		templateData.ParentId = thread.ParentId.Hex()
	}

	h.renderTemplate(w, r, "thread.html", templateData)
}

func (h *Handler) CommentPostHandler(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "id")
	target := "/thread/" + threadId

	req := api.CreateCommentRequest{Text: r.FormValue("thread")}
	if err := utils.Validate(&req); err != nil {
		redirectWithError(w, r, target, internal_errors.BadRequest("Comment must not be empty"))
		return
	}

	if _, err := h.Threads.AddComment(r.Context(), threadId, req.Text, getUser(r).Id); err != nil {
		redirectWithError(w, r, target, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ThreadDeleteHandler deletes a thread of the current user and returns to the
// page named by the "next" form field.
func (h *Handler) ThreadDeleteHandler(w http.ResponseWriter, r *http.Request) {
	next := localPath(r.FormValue("next"), "/")
	if err := h.Threads.Delete(r.Context(), chi.URLParam(r, "id"), getUser(r).Id); err != nil {
		redirectWithError(w, r, next, err)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

type createThreadPage struct {
	Text string
}

func (h *Handler) CreateThreadGetHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "create_thread.html", createThreadPage{})
}

// CreateThreadPostHandler posts a thread on behalf of the visitor. The thread
// belongs to the community selected in the visitor's session, if any.
func (h *Handler) CreateThreadPostHandler(w http.ResponseWriter, r *http.Request) {
	req := api.CreateThreadRequest{Text: r.FormValue("thread")}
	page := createThreadPage{Text: req.Text}
	if err := utils.Validate(&req); err != nil {
		h.renderTemplateWithError(w, r, http.StatusBadRequest, "create_thread.html", page, "Thread must not be empty")
		return
	}

	_, err := h.Threads.Create(r.Context(), domain.ThreadCreationData{
		Text:        req.Text,
		Author:      getUser(r).Id,
		CommunityId: mw.GetIdentity(r).OrganizationId,
	})
	if err != nil {
		status := internal_errors.StatusCode(err)
		if status == http.StatusInternalServerError {
			h.renderError(w, r, err)
			return
		}
		h.renderTemplateWithError(w, r, status, "create_thread.html", page, utils.ClientMessage(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

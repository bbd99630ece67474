package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jisap/threads-clone/internal/domain"
)

func (h *Handler) CommunitiesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := parsePage(r)

	result, err := h.Communities.Search(r.Context(), domain.CommunitySearch{
		SearchString: query,
		PageNumber:   page,
		PageSize:     h.Public.Pagination.CommunitiesPerPage,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Query       string
		Communities []domain.Community
		Pagination  Pagination
	}
	templateData.Query = query
	templateData.Communities = result.Communities
	templateData.Pagination = Pagination{Path: "/communities", Query: searchQuery(query), Page: page, IsNext: result.IsNext}

	h.renderTemplate(w, r, "communities.html", templateData)
}

// CommunityHandler shows a community with its members and threads.
func (h *Handler) CommunityHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.Communities.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	posts, err := h.Communities.Posts(r.Context(), details.Id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Community domain.CommunityDetails
		Threads   []*ThreadCard
	}
	templateData.Community = details
	templateData.Threads = h.renderThreads(posts, getUser(r))

	h.renderTemplate(w, r, "community.html", templateData)
}

package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	mw "github.com/jisap/threads-clone/internal/middleware"
	"github.com/jisap/threads-clone/internal/utils"
)

const profilePhotoFileField = "profile_photo_file"

func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := parsePage(r)

	result, err := h.Users.Search(r.Context(), domain.UserSearch{
		UserId:       getUser(r).ExternalId,
		SearchString: query,
		PageNumber:   page,
		PageSize:     h.Public.Pagination.UsersPerPage,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Query      string
		Users      []domain.User
		Pagination Pagination
	}
	templateData.Query = query
	templateData.Users = result.Users
	templateData.Pagination = Pagination{Path: "/search", Query: searchQuery(query), Page: page, IsNext: result.IsNext}

	h.renderTemplate(w, r, "search.html", templateData)
}

func searchQuery(q string) url.Values {
	if q == "" {
		return nil
	}
	return url.Values{"q": {q}}
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Users.GetPosts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	viewer := getUser(r)
	var templateData struct {
		Profile domain.User
		IsOwner bool
		Threads []*ThreadCard
	}
	templateData.Profile = profile.User
	templateData.IsOwner = viewer != nil && viewer.Id == profile.User.Id
	templateData.Threads = h.renderThreads(profile.Threads, viewer)

	h.renderTemplate(w, r, "profile.html", templateData)
}

// ActivityHandler lists replies other users left on the visitor's threads.
func (h *Handler) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	replies, err := h.Users.Activity(r.Context(), getUser(r).Id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var templateData struct {
		Replies []*ThreadCard
	}
	templateData.Replies = h.renderThreads(replies, getUser(r))

	h.renderTemplate(w, r, "activity.html", templateData)
}

type accountPage struct {
	Title        string
	Action       string
	Submit       string
	ProfilePhoto string
	Name         string
	Username     string
	Bio          string
}

func onboardingPage() accountPage {
	return accountPage{Title: "Onboarding", Action: "/onboarding", Submit: "Continue"}
}

func editProfilePage() accountPage {
	return accountPage{Title: "Edit Profile", Action: "/profile/edit", Submit: "Save"}
}

func (p *accountPage) fill(user domain.User) {
	p.ProfilePhoto = user.Image
	p.Name = user.Name
	p.Username = user.Username
	p.Bio = user.Bio
}

// OnboardingGetHandler shows the profile form prefilled from the stored
// profile, or from the identity provider for first-time visitors.
func (h *Handler) OnboardingGetHandler(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r)
	page := onboardingPage()

	user, err := h.Users.Get(r.Context(), identity.Id)
	switch {
	case err == nil && user.Onboarded:
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err == nil:
		page.fill(user)
	case internal_errors.IsNotFound(err):
		page.ProfilePhoto = identity.ImageUrl
		page.Name = identity.Name
		page.Username = identity.Username
	default:
		h.renderError(w, r, err)
		return
	}

	h.renderTemplate(w, r, "account.html", page)
}

func (h *Handler) OnboardingPostHandler(w http.ResponseWriter, r *http.Request) {
	h.saveProfile(w, r, onboardingPage(), "/")
}

func (h *Handler) ProfileEditGetHandler(w http.ResponseWriter, r *http.Request) {
	page := editProfilePage()
	page.fill(*getUser(r))
	h.renderTemplate(w, r, "account.html", page)
}

func (h *Handler) ProfileEditPostHandler(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r)
	h.saveProfile(w, r, editProfilePage(), "/profile/"+url.PathEscape(identity.Id))
}

// saveProfile handles the account form shared by onboarding and profile edit.
// A new photo file, when sent, replaces the profile_photo URL.
func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request, page accountPage, success string) {
	req := api.ProfileRequest{
		ProfilePhoto: r.FormValue("profile_photo"),
		Name:         r.FormValue("name"),
		Username:     r.FormValue("username"),
		Bio:          r.FormValue("bio"),
	}
	page.ProfilePhoto, page.Name, page.Username, page.Bio = req.ProfilePhoto, req.Name, req.Username, req.Bio

	fail := func(err error) {
		status := internal_errors.StatusCode(err)
		if status == http.StatusInternalServerError {
			h.renderError(w, r, err)
			return
		}
		h.renderTemplateWithError(w, r, status, "account.html", page, utils.ClientMessage(err))
	}

	photo, err := h.formFileURL(r, profilePhotoFileField)
	if err != nil {
		fail(err)
		return
	}
	if photo != "" {
		req.ProfilePhoto, page.ProfilePhoto = photo, photo
	}
	if err := utils.Validate(&req); err != nil {
		fail(internal_errors.BadRequest("All fields are required"))
		return
	}

	err = h.Users.Update(r.Context(), domain.UserUpdateData{
		UserId:   mw.GetIdentity(r).Id,
		Username: req.Username,
		Name:     req.Name,
		Bio:      req.Bio,
		Image:    req.ProfilePhoto,
	})
	if err != nil {
		fail(err)
		return
	}
	http.Redirect(w, r, success, http.StatusSeeOther)
}

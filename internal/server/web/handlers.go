package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/assets"
	"github.com/dmitrijs2005/gophsecrets/internal/server/models"
	"github.com/dmitrijs2005/gophsecrets/internal/server/sessions"
	"github.com/go-playground/validator/v10"
)

// AccountService is the account logic the handlers drive.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// SessionManager maps requests to signed-in users.
type SessionManager interface {
	Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) error
	Current(r *http.Request) (int64, bool)
	End(ctx context.Context, w http.ResponseWriter, r *http.Request)
	RequireAuthenticated(next http.Handler) http.Handler
}

type registerForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type Handler struct {
	accounts     AccountService
	sessions     SessionManager
	assets       assets.Source
	downloadFile string
	pages        *renderer
	validate     *validator.Validate
	logger       logging.Logger
}

func NewHandler(accounts AccountService, sm SessionManager, src assets.Source, downloadFile string, l logging.Logger) (*Handler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		accounts:     accounts,
		sessions:     sm,
		assets:       src,
		downloadFile: downloadFile,
		pages:        pages,
		validate:     validator.New(),
		logger:       l.With("module", "web"),
	}, nil
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.sessions.Current(r)
	h.render(w, r, pageIndex, pageData{Authenticated: authenticated})
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageRegister, pageData{})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := registerForm{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	_, authenticated := h.sessions.Current(r)

	if err := h.validate.Struct(&form); err != nil {
		recordAuthAttempt("register", outcomeInvalid)
		h.render(w, r, pageRegister, pageData{
			Authenticated: authenticated,
			Flashes:       []string{common.MsgAllFieldsRequired},
			Name:          form.Name,
			Email:         form.Email,
		})
		return
	}

	user, err := h.accounts.Register(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			recordAuthAttempt("register", outcomeRejected)
			h.render(w, r, pageRegister, pageData{
				Authenticated: authenticated,
				Flashes:       []string{common.MsgAccountExists},
				Name:          form.Name,
				Email:         form.Email,
			})
			return
		}
		recordAuthAttempt("register", outcomeError)
		h.serverError(w, r, "registration failed", err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		recordAuthAttempt("register", outcomeError)
		h.serverError(w, r, "session start failed", err)
		return
	}

	recordAuthAttempt("register", outcomeSuccess)
	h.render(w, r, pageSecrets, pageData{Authenticated: true, Name: user.Name})
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.sessions.Current(r)
	h.render(w, r, pageLogin, pageData{Authenticated: authenticated})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := loginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	_, authenticated := h.sessions.Current(r)

	if err := h.validate.Struct(&form); err != nil {
		recordAuthAttempt("login", outcomeInvalid)
		h.render(w, r, pageLogin, pageData{
			Authenticated: authenticated,
			Flashes:       []string{common.MsgAllFieldsRequired},
			Email:         form.Email,
		})
		return
	}

	user, err := h.accounts.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			recordAuthAttempt("login", outcomeRejected)
			h.render(w, r, pageLogin, pageData{
				Authenticated: authenticated,
				Flashes:       []string{common.MsgCredentialsNotFound},
				Email:         form.Email,
			})
			return
		}
		recordAuthAttempt("login", outcomeError)
		h.serverError(w, r, "login failed", err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		recordAuthAttempt("login", outcomeError)
		h.serverError(w, r, "session start failed", err)
		return
	}

	recordAuthAttempt("login", outcomeSuccess)
	h.render(w, r, pageSecrets, pageData{Authenticated: true, Name: user.Name})
}

// Secrets is gated; the user id comes from RequireAuthenticated.
func (h *Handler) Secrets(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, pageSecrets, pageData{Authenticated: true, Name: user.Name})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	obj, err := h.assets.Open(r.Context(), h.downloadFile)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.logger.Warn(r.Context(), "download asset missing", "file", h.downloadFile)
			http.Error(w, common.MsgDownloadNotAvailable, http.StatusNotFound)
			return
		}
		h.serverError(w, r, "asset open failed", err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.downloadFile))
	w.Header().Set("Cache-Control", "private, no-store")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn(r.Context(), "download interrupted", "error", err)
	}
}

// currentUser resolves the gated request's user. A session whose user no
// longer exists is ended and sent back to the login page.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := sessions.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, sessions.LoginPath, http.StatusFound)
		return nil, false
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.sessions.End(r.Context(), w, r)
			http.Redirect(w, r, sessions.LoginPath, http.StatusFound)
			return nil, false
		}
		h.serverError(w, r, "user lookup failed", err)
		return nil, false
	}
	return user, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	if err := h.pages.render(w, page, data); err != nil {
		h.serverError(w, r, "render failed", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(r.Context(), msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

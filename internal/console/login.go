package console

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
)

const loginFormKey = "login"

// LoginForm is the sign-in form: an email address and a password of at
// least six characters.
func LoginForm() form.Form {
	return form.New(
		form.FieldSpec{Name: "email", Label: "Email Address", Rule: form.EmailRule()},
		form.FieldSpec{Name: "password", Label: "Password", Rule: form.PasswordRule(6)},
	)
}

func loginView(s *session.Session) LoginView {
	return LoginView{
		Form:   formView(s.Form(loginFormKey, LoginForm), "password"),
		Toasts: s.Toasts().Drain(),
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if _, ok := s.Auth(); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, loginView(s))
}

func (h *Handler) LoginInput(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	var req inputRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, err := s.UpdateForm(loginFormKey, LoginForm, func(f form.Form) (form.Form, error) {
		return f.HandleInput(req.Field, req.Value)
	})
	if errors.Is(err, form.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loginView(s))
}

// Login submits the sign-in form. A rejected sign-in keeps the form filled
// and reports the API's message as a toast.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	f := s.Form(loginFormKey, LoginForm)
	if !f.Submittable() {
		writeJSON(w, http.StatusUnprocessableEntity, loginView(s))
		return
	}
	res, err := h.api.Login(r.Context(), f.Serialize())
	if err != nil {
		log.Printf("console: sign-in failed: %v", err)
		s.Toasts().Error(notify.Message(err))
		writeJSON(w, remoteStatus(err), loginView(s))
		return
	}
	if err := s.SignIn(res.Token, res.User); err != nil {
		log.Printf("console: sign-in token unusable: %v", err)
		s.Toasts().Error(notify.SomethingWentWrong)
		writeJSON(w, http.StatusBadGateway, loginView(s))
		return
	}
	s.Toasts().Success(fmt.Sprintf("Signed in as %s", res.User.Email))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.SignOut()
	s.Toasts().Info("Signed out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

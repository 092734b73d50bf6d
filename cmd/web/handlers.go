package main

import (
	"fmt"
	"net/http"

	"github.com/mabego/shortlink-web/internal/identity"
	"github.com/mabego/shortlink-web/internal/validator"
)

const RedirectMaxChars = 2048

// The struct tags tell the go-playground/form decoder how to map HTML form values into the different struct fields.
// The struct tag `form:"-"` tells the decoder to completely ignore a field during decoding.
type userSignOutForm struct {
	RedirectURL         string `form:"redirect_url"`
	validator.Validator `form:"-"`
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)

	app.render(w, http.StatusOK, "home.page.tmpl", data)
}

func (app *application) dashboard(w http.ResponseWriter, r *http.Request) {
	app.render(w, http.StatusOK, "dashboard.page.tmpl", app.newTemplateData(r))
}

func (app *application) userSignOutPost(w http.ResponseWriter, r *http.Request) {
	var form userSignOutForm

	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	if form.RedirectURL == "" {
		form.RedirectURL = "/"
	}

	form.CheckField(validator.MaxChars(form.RedirectURL, RedirectMaxChars), "redirect_url",
		fmt.Sprintf("This field cannot be more than %d characters long", RedirectMaxChars))
	form.CheckField(validator.LocalPath(form.RedirectURL), "redirect_url", "This field must be a path on this site")

	if !form.Valid() {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	// RenewToken changes the current session ID when the authentication state changes for the user.
	err = app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, err)
		return
	}

	// The provider owns the session; expiring its cookie here signs the browser out of this origin.
	identity.ClearCookie(w, app.sessionCookie, app.secureCookies)

	app.sessionManager.Put(r.Context(), "flash", "You've been signed out.")

	if app.links.SignOut != "" {
		http.Redirect(w, r, app.links.SignOut, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, form.RedirectURL, http.StatusSeeOther)
}

func ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodGet {
		fmt.Fprintln(w, "OK")
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/go-playground/form/v4"
	"github.com/justinas/nosurf"
	"github.com/mabego/shortlink-web/internal/config"
	"github.com/mabego/shortlink-web/internal/identity"
	"github.com/mileusna/useragent"
)

var ErrNoTmpl = errors.New("template does not exist")

// accountLinks are the identity provider's hosted pages shown in the shell.
type accountLinks struct {
	SignIn  string
	SignUp  string
	Account string
	SignOut string
}

// newAccountLinks builds the shell links once at startup. Sign-in and sign-up send the user back
// to the dashboard when they finish.
func newAccountLinks(cfg config.Config) (accountLinks, error) {
	back := map[string]string{cfg.Identity.RedirectParam: cfg.AppURL + "/dashboard"}

	signIn, err := providerURL(cfg.Identity.AccountsURL, cfg.Identity.SignInPath, back)
	if err != nil {
		return accountLinks{}, err
	}

	signUp, err := providerURL(cfg.Identity.AccountsURL, cfg.Identity.SignUpPath, back)
	if err != nil {
		return accountLinks{}, err
	}

	account, err := providerURL(cfg.Identity.AccountsURL, cfg.Identity.AccountPath, nil)
	if err != nil {
		return accountLinks{}, err
	}

	return accountLinks{
		SignIn:  signIn,
		SignUp:  signUp,
		Account: account,
		SignOut: cfg.Identity.SignOutURL,
	}, nil
}

// providerURL joins origin and path and encodes params as the query string.
func providerURL(origin, path string, params map[string]string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", origin, err)
	}

	u.Path = path

	query := make(url.Values, len(params))
	for k, v := range params {
		query.Add(k, v)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// serverError helper writes an error message and a stack trace to the errorLog,
// then sends a generic 500 Internal Server Error response to the user.
func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)

	if app.debug {
		http.Error(w, trace, http.StatusInternalServerError)
		return
	}

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError helper sends a specific status code and its description to the user.
func (app *application) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// notFound helper is a wrapper around clientError that sends a 404 Not Found response to the user.
func (app *application) notFound(w http.ResponseWriter) {
	app.clientError(w, http.StatusNotFound)
}

func (app *application) render(w http.ResponseWriter, status int, page string, data *templateData) {
	ts, ok := app.templateCache[page]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoTmpl, page)
		app.serverError(w, err)
		return
	}

	buf := new(bytes.Buffer)

	// Execute the template set and write the template to the buffer instead of the response body.
	err := ts.ExecuteTemplate(buf, "base", data)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	if err != nil {
		app.serverError(w, err)
		return
	}
}

func (app *application) newTemplateData(r *http.Request) *templateData {
	session := identity.FromContext(r.Context())

	return &templateData{
		IsAuthenticated: session.Active(),
		UserID:          session.UserID,
		Flash:           app.sessionManager.PopString(r.Context(), "flash"),
		CSRFToken:       nosurf.Token(r),
		Links:           app.links,
		Meta:            siteMeta,
		Features:        landingFeatures,
	}
}

func (app *application) decodePostForm(r *http.Request, dst any) error {
	err := r.ParseForm()
	if err != nil {
		return err
	}

	err = app.formDecoder.Decode(dst, r.PostForm)
	if err != nil {
		// Check for a non-nil pointer through the error InvalidDecoderError
		var invalidDecoderError *form.InvalidDecoderError

		if errors.As(err, &invalidDecoderError) {
			panic(err)
		}

		return fmt.Errorf("form decoding error: %w", err)
	}

	return nil
}

// resolveSession asks the identity provider for the request's session, bounded by identityTimeout.
func (app *application) resolveSession(r *http.Request) (identity.Session, error) {
	ctx, cancel := context.WithTimeout(r.Context(), app.identityTimeout)
	defer cancel()

	return app.identity.Resolve(ctx, r)
}

func (app *application) isAuthenticated(r *http.Request) bool {
	return identity.FromContext(r.Context()).Active()
}

// clientSummary describes the requesting browser as name/device, e.g. "Chrome/desktop".
func clientSummary(userAgent string) string {
	ua := useragent.Parse(userAgent)

	var mode string
	switch {
	case ua.Bot:
		mode = "bot"
	case ua.Mobile:
		mode = "phone"
	case ua.Tablet:
		mode = "tablet"
	case ua.Desktop:
		mode = "desktop"
	default:
		mode = "unknown"
	}

	name := ua.Name
	if name == "" {
		name = "-"
	}

	return name + "/" + mode
}

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/justinas/nosurf"
	"github.com/mabego/shortlink-web/internal/identity"
)

var ErrRecovered = errors.New("recovered")

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")

		// Call the next handler in the chain.
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.infoLog.Printf("%s - %s %s %s %s", r.RemoteAddr, r.Proto, r.Method, r.URL.RequestURI(),
			clientSummary(r.UserAgent()))
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A deferred function will run in the event of a panic as Go unwinds the stack.
		defer func() {
			// The builtin recover function checks if there has been a panic or not.
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%w: %s", ErrRecovered, err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If the user is not authenticated, send them back to the landing page and return from the
		// middleware chain so that no subsequent handlers in the chain are executed.
		if !app.isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		// Set the "Cache-Control: no-store" header so that pages that require authentication are not stored
		// in the user's browser cache or any other intermediary cache.
		w.Header().Add("Cache-Control", "no-store")
		w.Header().Set("X-Robots-Tag", "noindex")

		next.ServeHTTP(w, r)
	})
}

func (app *application) noSurf(next http.Handler) http.Handler {
	csrfHandler := nosurf.New(next)
	csrfHandler.SetBaseCookie(http.Cookie{
		Path:     "/",
		Secure:   app.secureCookies,
		HttpOnly: true,
	})

	return csrfHandler
}

// authenticate asks the identity provider who is making the request and stores the answer in the
// request context. A request the provider cannot vouch for continues as anonymous.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := app.resolveSession(r)
		switch {
		case err == nil:
		case errors.Is(err, identity.ErrNoSession):
		case errors.Is(err, identity.ErrInvalidSession):
			app.infoLog.Printf("%s - rejected session: %v", r.RemoteAddr, err)
		default:
			app.errorLog.Printf("resolve session: %v", err)
		}

		if err != nil || !session.Active() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := identity.WithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

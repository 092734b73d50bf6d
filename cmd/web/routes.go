package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/mabego/shortlink-web/ui"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	// Set the custom handler for 404 responses through httprouter.
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.notFound(w)
	})

	// Use an embedded file system instead of reading files from the disk at runtime.
	fileServer := http.FileServer(http.FS(ui.Files))
	router.Handler(http.MethodGet, "/static/*filepath", fileServer)

	// A ping route for uptime checks.
	router.HandlerFunc(http.MethodGet, "/ping", ping)

	// An unprotected middleware chain using alice, specific to 'dynamic' application routes.
	dynamic := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.authenticate)

	router.Handler(http.MethodGet, "/", dynamic.ThenFunc(app.home))

	// A protected (authenticated-only) and dynamic middleware chain.
	protected := dynamic.Append(app.requireAuthentication)

	router.Handler(http.MethodGet, "/dashboard", protected.ThenFunc(app.dashboard))
	router.Handler(http.MethodPost, "/user/signout", protected.ThenFunc(app.userSignOutPost))

	// A middleware chain using alice containing the 'standard' middleware used for every application request.
	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)

	// Return the 'standard' middleware chain followed by the router.
	return standard.Then(router)
}

package main

import (
	"bytes"
	"html"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	"github.com/mabego/shortlink-web/internal/identity/mocks"
	"github.com/shoenig/test/must"
)

// csrfTokenRX captures the CSRF token value from the sign-out form.
var csrfTokenRX = regexp.MustCompile(`<input type="hidden" name="csrf_token" value="(.+)">`)

// testLinks are the hosted account pages used by every test application.
var testLinks = accountLinks{
	SignIn:  "https://accounts.example.com/sign-in?redirect_url=https%3A%2F%2Fshort.example.com%2Fdashboard",
	SignUp:  "https://accounts.example.com/sign-up?redirect_url=https%3A%2F%2Fshort.example.com%2Fdashboard",
	Account: "https://accounts.example.com/user",
}

func extractCSRFToken(t *testing.T, body string) string {
	t.Helper()

	// FindStringSubmatch returns an array with the entire matched pattern at index 0,
	// and the values of any captured data in the subsequent indices.
	matches := csrfTokenRX.FindStringSubmatch(body)
	if len(matches) < 2 {
		t.Fatal("no csrf token found in body")
	}

	return html.UnescapeString(matches[1])
}

// newTestApplication creates an instance of the application struct backed by the mock identity provider.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	templateCache, err := newTemplateCache()
	must.NoError(t, err)

	sessionManager := scs.New()
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = true

	return &application{
		errorLog:        log.New(io.Discard, "", 0),
		infoLog:         log.New(io.Discard, "", 0),
		identity:        &mocks.Provider{},
		identityTimeout: time.Second,
		sessionCookie:   mocks.CookieName,
		secureCookies:   true,
		links:           testLinks,
		templateCache:   templateCache,
		formDecoder:     form.NewDecoder(),
		sessionManager:  sessionManager,
	}
}

// A custom testServer type that embeds an httptest.Server instance.
type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()

	ts := httptest.NewTLSServer(h)
	t.Cleanup(ts.Close)

	// Any response cookies will now be stored and sent with test server client requests.
	jar, err := cookiejar.New(nil)
	must.NoError(t, err)
	ts.Client().Jar = jar

	// Disable redirect-following so the test sees the redirect response itself.
	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &testServer{ts}
}

// signIn stores a provider session cookie in the client's jar, as the hosted sign-in page would.
func (ts *testServer) signIn(t *testing.T, token string) {
	t.Helper()

	u, err := url.Parse(ts.URL)
	must.NoError(t, err)

	ts.Client().Jar.SetCookies(u, []*http.Cookie{{
		Name:  mocks.CookieName,
		Value: token,
		Path:  "/",
	}})
}

// ts.get makes a GET request to a given url path using the test server client and returns the response
// status code, headers, and body.
func (ts *testServer) get(t *testing.T, urlPath string) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().Get(ts.URL + urlPath)
	must.NoError(t, err)
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	must.NoError(t, err)

	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

// postForm sends POST requests to the test server.
// The "form" parameter is a url.Values object that can contain any form data to send to the request body.
func (ts *testServer) postForm(t *testing.T, urlPath string, form url.Values) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().PostForm(ts.URL+urlPath, form)
	must.NoError(t, err)
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	must.NoError(t, err)

	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

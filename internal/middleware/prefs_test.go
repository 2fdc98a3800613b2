package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveLang(r *http.Request) (string, *httptest.ResponseRecorder) {
	var lang string
	rec := httptest.NewRecorder()
	Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = LangFrom(r)
	})).ServeHTTP(rec, r)
	return lang, rec
}

func TestPrefsDefaultsToSpanish(t *testing.T) {
	lang, _ := serveLang(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "es", lang)
}

func TestPrefsAcceptLanguage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	lang, _ := serveLang(r)
	assert.Equal(t, "en", lang)
}

func TestPrefsQueryWinsAndSetsCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "es"})
	lang, rec := serveLang(r)
	assert.Equal(t, "en", lang)
	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "en", cookies[0].Value)
	}
}

func TestPrefsIgnoresUnsupportedCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "fr"})
	r.Header.Set("Accept-Language", "en")
	lang, _ := serveLang(r)
	assert.Equal(t, "en", lang)
}

func TestLangFromWithoutMiddleware(t *testing.T) {
	assert.Equal(t, "es", LangFrom(httptest.NewRequest(http.MethodGet, "/", nil)))
}

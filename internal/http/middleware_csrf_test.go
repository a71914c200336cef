package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfEcho() http.Handler {
	return CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	}))
}

func TestCSRFProtection_IssuesTokenOnGet(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	c := findCookie(rec, DefaultCSRFCookieName)
	require.NotNil(t, c)
	assert.Equal(t, c.Value, rec.Body.String())
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestCSRFProtection_ReusesExistingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, req)

	assert.Equal(t, "existing", rec.Body.String())
	assert.Nil(t, findCookie(rec, DefaultCSRFCookieName))
}

func TestCSRFProtection_ValidatesPosts(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		header     string
		wantStatus int
	}{
		{name: "form token", form: url.Values{"csrf_token": {"tok"}}, wantStatus: http.StatusOK},
		{name: "header token", header: "tok", wantStatus: http.StatusOK},
		{name: "wrong token", form: url.Values{"csrf_token": {"other"}}, wantStatus: http.StatusForbidden},
		{name: "missing token", form: url.Values{}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			if tt.header != "" {
				req.Header.Set(DefaultCSRFHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			csrfEcho().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

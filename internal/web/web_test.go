package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/profit-backend/internal/nav"
)

func TestPages_RenderEachPage(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	cases := []struct {
		name, path, title string
		body              any
		want              string
	}{
		{PageHome, "/", "Home", Home, "How PROFit Works"},
		{PageLive, "/live", "Live Detection", Live, "Mountain Pose"},
		{PageUpload, "/upload", "Upload", Upload, "max. 100MB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			p.Handler(tc.name, tc.title, tc.body)(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			html := rec.Body.String()
			assert.Contains(t, html, tc.want)
			assert.Contains(t, html, `href="`+tc.path+`" class="active"`)
			assert.Equal(t, 1, strings.Count(html, `class="active"`))
		})
	}
}

func TestPages_MobileMenuFollowsCookie(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/menu/toggle", nil)
	req.Header.Set("Referer", "/live")
	rec := httptest.NewRecorder()
	ToggleMenu(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/live", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	page := httptest.NewRequest(http.MethodGet, "/live", nil)
	page.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	p.Handler(PageLive, "Live Detection", Live)(rec, page)

	html := rec.Body.String()
	assert.Contains(t, html, `<ul class="mobile">`)
	assert.Equal(t, 2, strings.Count(html, `class="active"`), "desktop and mobile links both highlight")
}

func TestPages_UnknownPage(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	assert.Error(t, p.Render(&strings.Builder{}, "nope", Data{}))
}

func TestPages_MobileLinkClosesMenu(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	open := httptest.NewRequest(http.MethodGet, "/live", nil)
	open.AddCookie(nav.Menu{Open: true}.Cookie())
	rec := httptest.NewRecorder()
	p.Handler(PageLive, "Live Detection", Live)(rec, open)
	assert.Contains(t, rec.Body.String(), `href="/upload?menu=close"`)
	assert.Empty(t, rec.Result().Cookies(), "plain navigation leaves the menu alone")

	follow := httptest.NewRequest(http.MethodGet, "/upload?"+nav.FromMenu, nil)
	follow.AddCookie(nav.Menu{Open: true}.Cookie())
	rec = httptest.NewRecorder()
	p.Handler(PageUpload, "Upload", Upload)(rec, follow)

	html := rec.Body.String()
	assert.NotContains(t, html, `<ul class="mobile">`)
	assert.Contains(t, html, `href="/upload" class="active"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "closed", cookies[0].Value)
}

package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/flashbites/flashbites/internal/constants"

	"github.com/gin-gonic/gin"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"zh":    constants.LocaleZhCN,
		"zh-TW": constants.LocaleZhCN,
		"en":    constants.LocaleEnUS,
		"en-GB": constants.LocaleEnUS,
		"fr":    "",
		"":      "",
	}
	for input, want := range cases {
		if got := NormalizeLocale(input); got != want {
			t.Fatalf("NormalizeLocale(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?lang=zh", nil)
	c.Request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if got := ResolveLocale(c); got != constants.LocaleZhCN {
		t.Fatalf("expected zh-CN from query, got %s", got)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	if got := ResolveLocale(c); got != constants.LocaleZhCN {
		t.Fatalf("expected zh-CN from header, got %s", got)
	}
}

func TestTFallsBack(t *testing.T) {
	if got := T(constants.LocaleZhCN, "error.not_found"); got != "资源不存在" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T("xx-XX", "error.not_found"); got != "resource not found" {
		t.Fatalf("expected default locale fallback, got %s", got)
	}
	if got := T(constants.LocaleEnUS, "error.nope"); got != "error.nope" {
		t.Fatalf("expected key fallback, got %s", got)
	}
}

func TestSprintfFormatsPlaceholders(t *testing.T) {
	got := Sprintf(constants.LocaleEnUS, "error.rate_limited", 30)
	if got != "too many requests, try again in 30 seconds" {
		t.Fatalf("unexpected message: %s", got)
	}
}

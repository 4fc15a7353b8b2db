package i18n

import (
	"fmt"
	"strings"

	"github.com/flashbites/flashbites/internal/constants"

	"github.com/gin-gonic/gin"
)

// DefaultLocale 默认语言
const DefaultLocale = constants.LocaleEnUS

var supportedLocales = map[string]bool{
	constants.LocaleEnUS: true,
	constants.LocaleZhCN: true,
}

// ResolveLocale 解析请求语言：query 参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := NormalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := NormalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

// NormalizeLocale 归一化语言标签，不支持的语言返回空串
func NormalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	lower := strings.ToLower(tag)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return constants.LocaleZhCN
	case strings.HasPrefix(lower, "en"):
		return constants.LocaleEnUS
	}
	if supportedLocales[tag] {
		return tag
	}
	return ""
}

// T 查找指定语言的文案，找不到时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查找文案并格式化占位符
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

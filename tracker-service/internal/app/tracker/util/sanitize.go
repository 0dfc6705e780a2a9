package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy удаляет любую HTML разметку. Политика потокобезопасна.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText очищает пользовательский текст (комментарии к оценкам, отчеты) от HTML.
// Результат хранится как простой текст, поэтому сущности вроде &amp; раскодируются обратно.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

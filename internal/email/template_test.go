package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHTMLIncludesContent(t *testing.T) {
	html := GenerateHTML("Дедлайн наступил", "Наступил срок выполнения: тест.", "deadline")

	assert.Contains(t, html, "Дедлайн наступил")
	assert.Contains(t, html, "Наступил срок выполнения: тест.")
	assert.Contains(t, html, kindColors["deadline"])
	assert.Contains(t, html, kindIcons["deadline"])
}

func TestGenerateHTMLUnknownKindFallsBack(t *testing.T) {
	html := GenerateHTML("s", "m", "unheard-of")

	assert.Contains(t, html, kindColors["info"])
	assert.Contains(t, html, "🔔")
}

func TestGenerateHTMLConvertsNewlines(t *testing.T) {
	html := GenerateHTML("s", "first line\nsecond line", "info")

	assert.Contains(t, html, "first line<br>second line")
	assert.False(t, strings.Contains(html, "first line\nsecond line"))
}

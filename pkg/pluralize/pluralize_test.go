package pluralize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeRussian(t *testing.T) {
	cases := []struct {
		n    int64
		want Category
	}{
		{1, One},
		{21, One},
		{101, One},
		{2, Few},
		{3, Few},
		{4, Few},
		{22, Few},
		{104, Few},
		{0, Many},
		{5, Many},
		{11, Many}, // teens are always many
		{12, Many},
		{14, Many},
		{111, Many},
		{112, Many},
		{25, Many},
		{100, Many},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize("ru", tc.n), "n=%d", tc.n)
	}
}

func TestCategorizeEnglish(t *testing.T) {
	assert.Equal(t, One, Categorize("en", 1))
	assert.Equal(t, Other, Categorize("en", 0))
	assert.Equal(t, Other, Categorize("en", 2))
	assert.Equal(t, Other, Categorize("en", 21))
}

func TestCategorizeUnknownLocaleUsesEnglishRule(t *testing.T) {
	assert.Equal(t, One, Categorize("de", 1))
	assert.Equal(t, Other, Categorize("de", 5))
}

func TestCategorizeNegativeCounts(t *testing.T) {
	assert.Equal(t, One, Categorize("ru", -1))
	assert.Equal(t, Few, Categorize("ru", -3))
}

func TestFormsFor(t *testing.T) {
	hours := Forms{One: "час", Few: "часа", Many: "часов"}
	assert.Equal(t, "час", hours.For("ru", 1))
	assert.Equal(t, "часа", hours.For("ru", 2))
	assert.Equal(t, "часов", hours.For("ru", 5))

	minutes := Forms{One: "minute", Other: "minutes"}
	assert.Equal(t, "minute", minutes.For("en", 1))
	assert.Equal(t, "minutes", minutes.For("en", 3))
}

func TestFormsForFallsBackThroughOtherToMany(t *testing.T) {
	// Russian noun table has no Other entry; a locale the table was not
	// written for still resolves to a usable form.
	days := Forms{One: "день", Few: "дня", Many: "дней"}
	assert.Equal(t, "дней", days.For("en", 2))
}

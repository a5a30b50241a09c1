// Package pluralize selects noun forms by cardinal count, CLDR style.
// It carries only the rules the product's locales need.
package pluralize

// Category is a CLDR plural category.
type Category string

const (
	One   Category = "one"
	Few   Category = "few"
	Many  Category = "many"
	Other Category = "other"
)

// Categorize returns the plural category of n for the locale.
// Unknown locales fall back to the English rule.
func Categorize(locale string, n int64) Category {
	if n < 0 {
		n = -n
	}
	switch locale {
	case "ru":
		return russian(n)
	default:
		return english(n)
	}
}

func english(n int64) Category {
	if n == 1 {
		return One
	}
	return Other
}

func russian(n int64) Category {
	mod10 := n % 10
	mod100 := n % 100

	switch {
	case mod10 == 1 && mod100 != 11:
		return One
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return Few
	default:
		return Many
	}
}

// Forms maps plural categories to word forms for one unit. Categories a
// locale never produces may be omitted; lookups fall back to Other, then
// to Many (Russian nouns list one/few/many, English nouns one/other).
type Forms map[Category]string

// For picks the form matching n in the given locale.
func (f Forms) For(locale string, n int64) string {
	cat := Categorize(locale, n)
	if form, ok := f[cat]; ok {
		return form
	}
	if form, ok := f[Other]; ok {
		return form
	}
	return f[Many]
}

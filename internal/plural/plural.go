// Package plural selects plural forms for a language and count.
// Form names are CLDR categories: "zero", "one", "two", "few", "many", "other".
// Forms lists them in the order numerus forms are stored in a catalog.
package plural

import "strings"

type rule struct {
	forms []string
	form  func(n int) string
}

var (
	ruleOneOther = rule{forms: []string{"one", "other"}, form: formOneOther}
	ruleFrench   = rule{forms: []string{"one", "other"}, form: formFrench}
	ruleOther    = rule{forms: []string{"other"}, form: func(int) string { return "other" }}
	ruleRussian  = rule{forms: []string{"one", "few", "many"}, form: formRussian}
	rulePolish   = rule{forms: []string{"one", "few", "many"}, form: formPolish}
	ruleCzech    = rule{forms: []string{"one", "few", "other"}, form: formCzech}
	ruleArabic   = rule{forms: []string{"zero", "one", "two", "few", "many", "other"}, form: formArabic}
	ruleWelsh    = rule{forms: []string{"zero", "one", "two", "few", "many", "other"}, form: formWelsh}
	ruleHebrew   = rule{forms: []string{"one", "two", "few", "many", "other"}, form: formHebrew}
)

var rulesByLang = map[string]rule{}

func init() {
	register := func(r rule, langs ...string) {
		for _, lang := range langs {
			rulesByLang[lang] = r
		}
	}
	register(ruleOneOther, "en", "es", "de", "it", "pt", "nl", "no", "nb", "sv", "da", "fi", "tr", "el", "hu", "et", "bg", "hi")
	register(ruleFrench, "fr")
	register(ruleOther, "ja", "ko", "zh", "th", "vi", "id")
	register(ruleRussian, "ru", "uk", "be", "sr", "hr", "bs", "sh")
	register(rulePolish, "pl")
	register(ruleCzech, "cs", "sk")
	register(ruleArabic, "ar")
	register(ruleWelsh, "cy", "br", "ga", "gd", "gv", "kw", "mt", "sm", "ak")
	register(ruleHebrew, "he", "iw")
}

func baseLang(lang string) string {
	base := strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	return base
}

func lookup(lang string) rule {
	if r, ok := rulesByLang[baseLang(lang)]; ok {
		return r
	}
	return ruleOneOther
}

// Form returns the CLDR plural form for the given language tag and count.
// Language tag is normalized to base (e.g. "en-US" -> "en"). Unknown languages use one/other.
func Form(lang string, count int) string {
	n := count
	if n < 0 {
		n = -n
	}
	return lookup(lang).form(n)
}

// Forms returns the ordered plural forms a numerus message carries for lang.
func Forms(lang string) []string {
	forms := lookup(lang).forms
	out := make([]string, len(forms))
	copy(out, forms)
	return out
}

// Index returns the position of the form for count within Forms(lang).
func Index(lang string, count int) int {
	r := lookup(lang)
	n := count
	if n < 0 {
		n = -n
	}
	form := r.form(n)
	for i, f := range r.forms {
		if f == form {
			return i
		}
	}
	return len(r.forms) - 1
}

func formOneOther(n int) string {
	if n == 1 {
		return "one"
	}
	return "other"
}

func formFrench(n int) string {
	if n == 0 || n == 1 {
		return "one"
	}
	return "other"
}

func formArabic(n int) string {
	if n == 0 {
		return "zero"
	}
	if n == 1 {
		return "one"
	}
	if n == 2 {
		return "two"
	}
	n100 := n % 100
	if n100 >= 3 && n100 <= 10 {
		return "few"
	}
	if n100 >= 11 && n100 <= 99 {
		return "many"
	}
	return "other"
}

func formRussian(n int) string {
	n10 := n % 10
	n100 := n % 100
	if n10 == 1 && n100 != 11 {
		return "one"
	}
	if n10 >= 2 && n10 <= 4 && (n100 < 12 || n100 > 14) {
		return "few"
	}
	return "many"
}

func formPolish(n int) string {
	if n == 1 {
		return "one"
	}
	n10 := n % 10
	n100 := n % 100
	if n10 >= 2 && n10 <= 4 && (n100 < 12 || n100 > 14) {
		return "few"
	}
	return "many"
}

func formCzech(n int) string {
	if n == 1 {
		return "one"
	}
	if n >= 2 && n <= 4 {
		return "few"
	}
	return "other"
}

func formWelsh(n int) string {
	switch n {
	case 0:
		return "zero"
	case 1:
		return "one"
	case 2:
		return "two"
	case 3:
		return "few"
	case 6:
		return "many"
	}
	return "other"
}

func formHebrew(n int) string {
	if n == 1 {
		return "one"
	}
	if n == 2 {
		return "two"
	}
	if n >= 3 && n <= 10 {
		return "few"
	}
	if n >= 11 && n <= 99 {
		return "many"
	}
	return "other"
}

package accounts

import (
	"golang.org/x/text/language"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

var supportedLanguages = []language.Tag{language.English, language.Spanish, language.French}

// DefaultLanguage is assigned to new profiles.
const DefaultLanguage = "en"

// NormalizeLanguage parses a BCP 47 tag and maps it onto a supported base
// language, so "es-MX" becomes "es". Unsupported languages are rejected.
func NormalizeLanguage(raw string) (string, error) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", shared.NewValidationError("language_preference", "must be a BCP 47 language tag")
	}
	base, confidence := tag.Base()
	if confidence != language.Exact || !supportedBase(base) {
		return "", shared.NewValidationError("language_preference", "must be one of en es fr")
	}
	return base.String(), nil
}

func supportedBase(base language.Base) bool {
	for _, t := range supportedLanguages {
		if b, _ := t.Base(); b == base {
			return true
		}
	}
	return false
}

func validTheme(t Theme) bool {
	return t == ThemeLight || t == ThemeDark
}

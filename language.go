package recaptcha

// languageCodes maps subscribe page language files to widget language tags.
// See https://developers.google.com/recaptcha/docs/language.
// An empty code means the widget has no matching language.
var languageCodes = map[string]string{
	"afrikaans.inc":      "af",
	"arabic.inc":         "ar",
	"belgianflemish.inc": "",
	"bulgarian.inc":      "bg",
	"catalan.inc":        "ca",
	"croatian.inc":       "hr",
	"czech.inc":          "cs",
	"danish.inc":         "da",
	"dutch.inc":          "nl",
	"english-gaelic.inc": "en-GB",
	"english.inc":        "en-GB",
	"english-usa.inc":    "en",
	"estonian.inc":       "et",
	"finnish.inc":        "fi",
	"french.inc":         "fr",
	"german.inc":         "de",
	"greek.inc":          "el",
	"hebrew.inc":         "iw",
	"hungarian.inc":      "hu",
	"indonesian.inc":     "id",
	"italian.inc":        "it",
	"japanese.inc":       "ja",
	"latinamerican.inc":  "es",
	"norwegian.inc":      "no",
	"persian.inc":        "fa",
	"polish.inc":         "pl",
	"portuguese.inc":     "pt",
	"portuguese_pt.inc":  "pt-PT",
	"romanian.inc":       "ro",
	"russian.inc":        "ru",
	"serbian.inc":        "sr",
	"slovenian.inc":      "sl",
	"spanish.inc":        "es",
	"swedish.inc":        "sv",
	"swissgerman.inc":    "de-CH",
	"tchinese.inc":       "zh-TW",
	"turkish.inc":        "tr",
	"ukrainian.inc":      "uk",
	"usa.inc":            "en",
	"vietnamese.inc":     "vi",
}

// LanguageCode returns the widget language for a language file, or "" when
// there is none.
func LanguageCode(languageFile string) string {
	return languageCodes[languageFile]
}

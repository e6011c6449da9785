package recaptcha

import (
	"html/template"
	"net/url"
	"strings"
)

const ScriptURL = "https://www.google.com/recaptcha/api.js"

// WidgetOptions control how the client widget is displayed.
type WidgetOptions struct {
	LanguageFile string
	// Theme is light or dark; other values are ignored.
	Theme string
	// Size is normal or compact; other values are ignored.
	Size string
}

type widgetStyle struct {
	class  string
	script string
	// languageAttr carries the language as a div attribute instead of the
	// script's hl parameter.
	languageAttr bool
}

var widgetStyles = map[string]widgetStyle{
	"google":    {class: "g-recaptcha", script: ScriptURL},
	"turnstile": {class: "cf-turnstile", script: "https://challenges.cloudflare.com/turnstile/v0/api.js", languageAttr: true},
}

// turnstileLanguages maps Google-specific codes to the ISO 639-1 codes
// Turnstile accepts.
var turnstileLanguages = map[string]string{
	"iw": "he",
	"no": "nb",
}

var widgetTemplate = template.Must(template.New("widget").Parse(
	`<div class="{{.Class}}" data-sitekey="{{.SiteKey}}"` +
		`{{if .Theme}} data-theme="{{.Theme}}"{{end}}` +
		`{{if .Size}} data-size="{{.Size}}"{{end}}` +
		`{{if .Language}} data-language="{{.Language}}"{{end}}></div>
    <script type="text/javascript" src="{{.Script}}">
    </script>`))

type widgetData struct {
	Class    string
	SiteKey  string
	Theme    string
	Size     string
	Language string
	Script   string
}

// ScriptURLFor returns the widget script URL localised for languageFile.
// Unknown language files get no hl parameter.
func ScriptURLFor(languageFile string) string {
	code := LanguageCode(languageFile)
	if code == "" {
		return ScriptURL
	}
	return ScriptURL + "?hl=" + url.QueryEscape(code)
}

// RenderWidget returns the reCAPTCHA div and script tags for a subscribe page.
func RenderWidget(siteKey string, opts WidgetOptions) string {
	return renderWidget("google", siteKey, opts)
}

func renderWidget(provider, siteKey string, opts WidgetOptions) string {
	style, ok := widgetStyles[provider]
	if !ok {
		style = widgetStyles["google"]
	}

	data := widgetData{
		Class:   style.class,
		SiteKey: siteKey,
		Theme:   oneOf(opts.Theme, "light", "dark"),
		Size:    oneOf(opts.Size, "normal", "compact"),
		Script:  style.script,
	}
	if style.languageAttr {
		data.Language = turnstileLanguage(LanguageCode(opts.LanguageFile))
	} else {
		data.Script = ScriptURLFor(opts.LanguageFile)
	}

	var b strings.Builder
	if err := widgetTemplate.Execute(&b, data); err != nil {
		// Only reachable on a write error, which strings.Builder never returns.
		return ""
	}
	return b.String()
}

func turnstileLanguage(code string) string {
	code = strings.ToLower(code)
	if alt, ok := turnstileLanguages[code]; ok {
		return alt
	}
	return code
}

func oneOf(v string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return ""
}

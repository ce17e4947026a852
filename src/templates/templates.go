package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/utils"
)

const (
	Dayish   = time.Hour * 24
	Weekish  = Dayish * 7
	Monthish = Dayish * 30
	Yearish  = Dayish * 365
)

//go:embed src
var embeddedTemplateFs embed.FS
var embeddedTemplates map[string]*template.Template

func getTemplatesFromFS(templateFS fs.ReadDirFS) (map[string]*template.Template, map[string]error) {
	templates := make(map[string]*template.Template)
	errs := make(map[string]error)

	files := utils.Must1(templateFS.ReadDir("src"))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".html") {
			continue
		}

		t := template.New(f.Name())
		t = t.Funcs(sprig.FuncMap())
		t = t.Funcs(QuillTemplateFuncs)
		t, err := t.ParseFS(templateFS,
			"src/layouts/*",
			"src/"+f.Name(),
		)
		if err != nil {
			errs[f.Name()] = err
			continue
		}
		templates[f.Name()] = t
	}

	return templates, errs
}

// Parses the embedded templates. Panics if any of them are broken.
func Init() {
	type errEntry struct {
		name string
		err  error
	}

	var errs map[string]error
	embeddedTemplates, errs = getTemplatesFromFS(embeddedTemplateFs)
	if len(errs) > 0 {
		var errsList []errEntry
		for filename, err := range errs {
			errsList = append(errsList, errEntry{filename, err})
		}
		sort.Slice(errsList, func(i, j int) bool {
			return strings.Compare(errsList[i].name, errsList[j].name) < 0
		})
		for _, err := range errsList {
			logging.Error().Str("filename", err.name).Err(err.err).Msg("Failed to parse template")
		}
		panic("Failed to parse templates; see above")
	}
}

func GetTemplate(name string) *template.Template {
	if embeddedTemplates == nil {
		Init()
	}
	template, hasTemplate := embeddedTemplates[name]
	if !hasTemplate {
		panic(oops.New(nil, "Template not found: %s", name))
	}
	return template
}

func relativeDate(now, t time.Time) string {
	str := func(primary int, primaryName string, secondary int, secondaryName string) string {
		result := fmt.Sprintf("%d %s", primary, primaryName)
		if primary != 1 {
			result += "s"
		}
		if secondary > 0 {
			result += fmt.Sprintf(", %d %s", secondary, secondaryName)
			if secondary != 1 {
				result += "s"
			}
		}
		return result + " ago"
	}

	delta := now.Sub(t)
	switch {
	case delta < time.Minute:
		return "Less than a minute ago"
	case delta < time.Hour:
		return str(int(delta.Minutes()), "minute", 0, "")
	case delta < Dayish:
		return str(int(delta/time.Hour), "hour", int((delta%time.Hour)/time.Minute), "minute")
	case delta < Weekish:
		return str(int(delta/Dayish), "day", int((delta%Dayish)/time.Hour), "hour")
	case delta < Monthish:
		return str(int(delta/Weekish), "week", int((delta%Weekish)/Dayish), "day")
	case delta < Yearish:
		return str(int(delta/Monthish), "month", int((delta%Monthish)/Weekish), "week")
	default:
		return str(int(delta/Yearish), "year", int((delta%Yearish)/Monthish), "month")
	}
}

var QuillTemplateFuncs = template.FuncMap{
	"absolutedate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006, 3:04pm")
	},
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
	"relativedate": func(t time.Time) string {
		return relativeDate(time.Now(), t)
	},
	"timehtml": func(formatted string, t time.Time) template.HTML {
		iso := t.UTC().Format(time.RFC3339)
		return template.HTML(fmt.Sprintf(`<time datetime="%s">%s</time>`, iso, template.HTMLEscapeString(formatted)))
	},
	"csrftoken": func(s *Session) template.HTML {
		if s == nil {
			return ""
		}
		return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`, auth.CSRFFieldName, template.HTMLEscapeString(s.CSRFToken)))
	},
	"lastidx": func(idx int, l int) bool {
		return idx == l-1
	},
}

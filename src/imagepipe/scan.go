/*
Package imagepipe moves images out of Markdown and into durable storage.

An article body may carry images inline as data URIs, or as placeholders
pointing at bytes held in an edit session. Externalize finds those
references, uploads each distinct image once, and rewrites the Markdown to
point at the public URLs.
*/
package imagepipe

import (
	"regexp"
	"sort"
)

type Form int

const (
	// ![alt](data:image/png;base64,iVBORw0...)
	FormDataURI Form = iota + 1
	// ![alt](/images/3f9a0c1e2b)
	FormPlaceholder
	// ![alt](temp://3f9a0c1e2b)
	FormTemp
)

// In every pattern group 1 is the alt text and group 2 the whole link target.
var (
	REDataURI     = regexp.MustCompile(`!\[([^\]\n]*)\]\((data:image/([a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/]+={0,2}))\)`)
	REPlaceholder = regexp.MustCompile(`!\[([^\]\n]*)\]\((/images/([A-Za-z0-9_-]+))\)`)
	RETemp        = regexp.MustCompile(`!\[([^\]\n]*)\]\((temp://([A-Za-z0-9_-]+))\)`)
)

func (f Form) regexp() *regexp.Regexp {
	switch f {
	case FormDataURI:
		return REDataURI
	case FormPlaceholder:
		return REPlaceholder
	case FormTemp:
		return RETemp
	}
	panic("unknown image reference form")
}

// Which reference forms a scan recognizes.
type Grammar struct {
	DataURI     bool
	Placeholder bool
	Temp        bool
}

var (
	// The article editor pastes images as data URIs and uploads them to an
	// edit session, which hands back /images/ placeholders.
	EditorGrammar = Grammar{DataURI: true, Placeholder: true}
	AllForms      = Grammar{DataURI: true, Placeholder: true, Temp: true}
)

func (g Grammar) forms() []Form {
	var forms []Form
	if g.DataURI {
		forms = append(forms, FormDataURI)
	}
	if g.Placeholder {
		forms = append(forms, FormPlaceholder)
	}
	if g.Temp {
		forms = append(forms, FormTemp)
	}
	return forms
}

// One distinct image referenced from Markdown, however many times it appears.
type Reference struct {
	Form Form

	// The link target exactly as written. References are distinct by target.
	Target string

	// Alt text of the first occurrence.
	Alt string

	// Media subtype for data URIs (png, jpeg, svg+xml...).
	MediaType string
	// Base64 payload for data URIs.
	Data string
	// Edit session image id for placeholders.
	ID string

	Occurrences int

	firstIndex int
}

// Returns the distinct references in order of first appearance.
func Scan(markdown string, grammar Grammar) []Reference {
	byTarget := map[string]*Reference{}
	var refs []*Reference

	for _, form := range grammar.forms() {
		for _, m := range form.regexp().FindAllStringSubmatchIndex(markdown, -1) {
			target := markdown[m[4]:m[5]]
			if existing, ok := byTarget[target]; ok {
				existing.Occurrences++
				if m[0] < existing.firstIndex {
					existing.firstIndex = m[0]
					existing.Alt = markdown[m[2]:m[3]]
				}
				continue
			}

			ref := &Reference{
				Form:        form,
				Target:      target,
				Alt:         markdown[m[2]:m[3]],
				Occurrences: 1,
				firstIndex:  m[0],
			}
			if form == FormDataURI {
				ref.MediaType = markdown[m[6]:m[7]]
				ref.Data = markdown[m[8]:m[9]]
			} else {
				ref.ID = markdown[m[6]:m[7]]
			}
			byTarget[target] = ref
			refs = append(refs, ref)
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].firstIndex < refs[j].firstIndex
	})

	result := make([]Reference, len(refs))
	for i, ref := range refs {
		result[i] = *ref
	}
	return result
}

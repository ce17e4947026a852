package website

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/quilldata"
)

const maxFormMemory = 32 * 1024 * 1024

const (
	maxTitleLength = 255
	maxBodyLength  = 200_000
	maxTags        = 10
	maxEditors     = 20
)

// The create and edit forms share these fields.
type articleForm struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags"`
	EditorIDs   []int64  `json:"editors"`
	EditSession string   `json:"edit_session"`

	// Stored as-is, without being flipped back. A checked discord_checkbox
	// means the article is stored with discord = false.
	Discord bool `json:"discord"`
}

func (f articleForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&f.Body, validation.Required, validation.By(checkBodyLength)),
		validation.Field(&f.Tags, validation.Length(0, maxTags)),
		validation.Field(&f.EditorIDs, validation.Length(0, maxEditors)),
	)
}

// Inline images are uploaded and replaced by short URLs before the article is
// stored, so their base64 payloads don't count against the length limit.
func bodyLength(body string) int {
	withoutPayloads := imagepipe.REDataURI.ReplaceAllString(body, "![$1]()")
	return utf8.RuneCountInString(withoutPayloads)
}

func checkBodyLength(value interface{}) error {
	body, _ := value.(string)
	if bodyLength(body) > maxBodyLength {
		return validation.NewError("validation_body_too_long", fmt.Sprintf("the text may be at most %d characters long, not counting pasted images", maxBodyLength))
	}
	return nil
}

func (f articleForm) Submission() quilldata.ArticleSubmission {
	return quilldata.ArticleSubmission{
		Title:     f.Title,
		Body:      f.Body,
		Tags:      f.Tags,
		EditorIDs: f.EditorIDs,
		Discord:   f.Discord,
	}
}

/*
Reads the article form from a urlencoded or multipart body. Tags and editors
may be repeated fields or comma-separated lists. Problems are returned per
field, ready to be sent back to the client.
*/
func parseArticleForm(req *http.Request) (articleForm, map[string]string) {
	fieldErrs := map[string]string{}

	err := req.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		fieldErrs["form"] = "The form could not be read."
		return articleForm{}, fieldErrs
	}
	form := req.PostForm

	f := articleForm{
		Title:       strings.TrimSpace(form.Get("title")),
		Body:        strings.ReplaceAll(form.Get("body"), "\r\n", "\n"),
		EditSession: form.Get("edit_session"),
		Discord:     form.Get("discord_checkbox") == "",
	}

	tags, invalid := quilldata.CleanTags(splitList(form["tags"]))
	f.Tags = tags
	if len(invalid) > 0 {
		fieldErrs["tags"] = "Tags may only contain lowercase letters, digits and - . + #: " + strings.Join(invalid, ", ")
	}

	for _, raw := range splitList(form["editors"]) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fieldErrs["editors"] = "Editors must be user ids."
			break
		}
		f.EditorIDs = append(f.EditorIDs, id)
	}

	if err := f.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			for field, ferr := range verrs {
				if _, already := fieldErrs[field]; !already {
					fieldErrs[field] = ferr.Error()
				}
			}
		} else {
			fieldErrs["form"] = err.Error()
		}
	}

	if len(fieldErrs) > 0 {
		return f, fieldErrs
	}
	return f, nil
}

func splitList(values []string) []string {
	var result []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}

package imagepipe

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/utils"
	"golang.org/x/sync/errgroup"
)

// Returned when the image store needs a credential and none is configured.
var ErrMissingCredential = errors.New("image store credential is missing")

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Somewhere images can be written to and served from.
type Store interface {
	// Writes a new file and returns its public URL. The credential is
	// whatever the pipeline's CredentialFunc produced, or "" without one.
	Put(ctx context.Context, credential string, upload Upload) (string, error)
}

type CredentialFunc func(ctx context.Context) (string, error)

type Pipeline struct {
	Store   Store
	Grammar Grammar

	// Consulted once per Externalize call, and only if something needs
	// uploading. May be nil for stores that authenticate on their own.
	Credentials CredentialFunc
}

type Result struct {
	Markdown string

	// Target of each uploaded reference to its public URL.
	Uploaded map[string]string

	// Edit session image ids that were uploaded, and so are now published.
	UploadedIDs []string

	// References left in the text because nothing backs them, such as a
	// placeholder id the edit session does not know.
	Unresolved []Reference
}

/*
Uploads every image referenced from markdown and rewrites the references to
the resulting URLs. Placeholders are looked up in refs, which may be nil.

Uploads run concurrently. If any of them fails the whole call fails, the
remaining uploads are cancelled, and no rewritten Markdown is returned.
Identical references are uploaded once. Nothing is deduplicated across calls,
so submitting the same image twice stores two files.
*/
func (p *Pipeline) Externalize(ctx context.Context, markdown string, refs *RefMap) (Result, error) {
	logger := logging.ExtractLogger(ctx)

	found := Scan(markdown, p.Grammar)
	result := Result{
		Markdown: markdown,
		Uploaded: map[string]string{},
	}
	if len(found) == 0 {
		return result, nil
	}

	type pending struct {
		ref    Reference
		upload Upload
	}
	var todo []pending
	for _, ref := range found {
		upload, ok := resolve(ref, refs)
		if !ok {
			result.Unresolved = append(result.Unresolved, ref)
			continue
		}
		todo = append(todo, pending{ref: ref, upload: upload})
	}
	if len(todo) == 0 {
		return result, nil
	}

	var credential string
	if p.Credentials != nil {
		var err error
		credential, err = p.Credentials(ctx)
		if err != nil {
			return Result{}, err
		}
		if credential == "" {
			return Result{}, ErrMissingCredential
		}
	}

	urls := make([]string, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	for i := range todo {
		i := i
		g.Go(func() error {
			upload := todo[i].upload
			logger.Debug().
				Str("filename", upload.Filename).
				Str("sha1", fmt.Sprintf("%x", sha1.Sum(upload.Data))).
				Int("size", len(upload.Data)).
				Msg("Uploading image")

			url, err := p.Store.Put(gctx, credential, upload)
			if err != nil {
				return oops.New(err, "failed to upload image %s", upload.Filename)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	for i, item := range todo {
		result.Uploaded[item.ref.Target] = urls[i]
		if item.ref.ID != "" {
			result.UploadedIDs = append(result.UploadedIDs, item.ref.ID)
		}
	}
	result.Markdown = Rewrite(markdown, found, result.Uploaded)
	return result, nil
}

func resolve(ref Reference, refs *RefMap) (Upload, bool) {
	switch ref.Form {
	case FormDataURI:
		data, err := base64.StdEncoding.DecodeString(ref.Data)
		if err != nil || len(data) == 0 {
			return Upload{}, false
		}
		ext := ExtensionForMediaType(ref.MediaType)
		return Upload{
			Filename:    NewFilename(ext),
			ContentType: "image/" + strings.ToLower(ref.MediaType),
			Data:        data,
		}, true
	default:
		img, ok := refs.Get(ref.ID)
		if !ok {
			return Upload{}, false
		}
		return Upload{
			Filename:    NewFilename(ExtensionForFilename(img.Filename)),
			ContentType: http.DetectContentType(img.Data),
			Data:        img.Data,
		}, true
	}
}

const DefaultExtension = "png"

var reExtension = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

var mediaTypeExtensions = map[string]string{
	"svg+xml":            "svg",
	"x-icon":             "ico",
	"vnd.microsoft.icon": "ico",
	"pjpeg":              "jpg",
}

// Extension for a data URI media subtype such as "png" or "svg+xml".
func ExtensionForMediaType(subtype string) string {
	subtype = strings.ToLower(subtype)
	if ext, ok := mediaTypeExtensions[subtype]; ok {
		return ext
	}
	if reExtension.MatchString(subtype) {
		return subtype
	}
	return DefaultExtension
}

func ExtensionForFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if reExtension.MatchString(ext) {
		return ext
	}
	return DefaultExtension
}

func NewFilename(ext string) string {
	return utils.RandomID(12) + "." + utils.OrDefault(ext, DefaultExtension)
}

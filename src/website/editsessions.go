package website

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quillurl"
	_ "golang.org/x/image/webp"
)

const imageFieldName = "image"

// Bounds the memory a full decode can take, about 100MB as RGBA.
const maxImagePixels = 25_000_000

func APIEditSessionCreate(c *RequestContext) ResponseData {
	id := c.Site.EditSessions.Create(c.CurrentUser.ID)

	type editSessionJson struct {
		ID        string `json:"id"`
		ImagesUrl string `json:"images_url"`
	}
	var res ResponseData
	res.StatusCode = http.StatusCreated
	res.WriteJson(editSessionJson{
		ID:        id,
		ImagesUrl: quillurl.BuildAPIEditSessionImages(id),
	})
	return res
}

/*
Accepts one image into the edit session and returns the placeholder the
editor should insert. Nothing leaves the server until the article is
submitted.
*/
func APIEditSessionImage(c *RequestContext) ResponseData {
	refs, ok := c.Site.EditSessions.Get(c.PathParams["sessionid"], c.CurrentUser.ID)
	if !ok {
		return FourOhFour(c)
	}

	maxSize := c.Site.MaxImageSize
	// Leave room for the multipart framing around the file itself.
	c.Req.Body = http.MaxBytesReader(c.Res, c.Req.Body, int64(maxSize)+64*1024)
	file, header, err := c.Req.FormFile(imageFieldName)
	if err != nil {
		if c.Req.ContentLength > int64(maxSize) {
			return c.RejectRequest(http.StatusRequestEntityTooLarge, fmt.Sprintf("Images may be at most %d bytes.", maxSize))
		}
		return c.RejectRequest(http.StatusBadRequest, "No image was uploaded.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(maxSize)+1))
	if err != nil {
		return c.RejectRequest(http.StatusBadRequest, "The image could not be read.")
	}
	if len(data) > maxSize {
		return c.RejectRequest(http.StatusRequestEntityTooLarge, fmt.Sprintf("Images may be at most %d bytes.", maxSize))
	}

	filename, err := probeImage(header.Filename, data)
	if err != nil {
		return c.RejectRequest(http.StatusBadRequest, "That file is not an image we can use.")
	}

	id := refs.Add(filename, data)
	placeholder := imagepipe.PlaceholderPath(id)

	type imageJson struct {
		ID          string `json:"id"`
		Placeholder string `json:"placeholder"`
		Markdown    string `json:"markdown"`
	}
	var res ResponseData
	res.StatusCode = http.StatusCreated
	res.WriteJson(imageJson{
		ID:          id,
		Placeholder: placeholder,
		Markdown:    fmt.Sprintf("![%s](%s)", altText(header.Filename), placeholder),
	})
	return res
}

func APIEditSessionDiscard(c *RequestContext) ResponseData {
	if !c.Site.EditSessions.Discard(c.PathParams["sessionid"], c.CurrentUser.ID) {
		return FourOhFour(c)
	}
	var res ResponseData
	res.StatusCode = http.StatusNoContent
	return res
}

// Checks that data decodes as an image and returns a filename whose
// extension matches what it actually is. The header alone is not enough,
// since a few magic bytes are all DecodeConfig looks at.
func probeImage(filename string, data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", oops.New(nil, "image dimensions %dx%d are out of range", cfg.Width, cfg.Height)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", oops.New(err, "image data is corrupt")
	}

	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	ext := imagepipe.ExtensionForFilename(base)
	if filepath.Ext(base) == "" || (ext != format && !(format == "jpeg" && ext == "jpg")) {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
	}
	return base, nil
}

// Brackets and line breaks would end the alt text early, leaving a
// placeholder that no longer parses as an image.
var altTextReplacer = strings.NewReplacer("[", "", "]", "", "\r", " ", "\n", " ")

func altText(filename string) string {
	base := filepath.Base(filename)
	base = base[:len(base)-len(filepath.Ext(base))]
	base = strings.TrimSpace(altTextReplacer.Replace(base))
	if base == "" || base == "." {
		return "image"
	}
	return base
}

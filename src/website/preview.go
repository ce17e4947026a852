package website

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/parsing"
)

const (
	previewWriteTimeout = 10 * time.Second
	previewIdleTimeout  = 10 * time.Minute
)

var previewUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

type previewJson struct {
	Html string `json:"html"`
}

func APIPreview(c *RequestContext) ResponseData {
	if err := c.Req.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return c.RejectRequest(http.StatusBadRequest, "The form could not be read.")
	}

	refs, _ := c.Site.EditSessions.Get(c.Req.PostForm.Get("edit_session"), c.CurrentUser.ID)

	var res ResponseData
	res.WriteJson(previewJson{Html: renderPreview(c.Req.PostForm.Get("body"), refs)})
	return res
}

/*
Live preview. Each text message from the client is a complete Markdown
document, and each reply is the rendered HTML. The edit session is fixed when
the socket opens, via the edit_session query parameter.
*/
func APIPreviewSocket(c *RequestContext) ResponseData {
	refs, _ := c.Site.EditSessions.Get(c.Req.URL.Query().Get("edit_session"), c.CurrentUser.ID)

	conn, err := previewUpgrader.Upgrade(c.Res, c.Req, nil)
	if err != nil {
		// The upgrader has already written an error response.
		c.Logger.Debug().Err(err).Msg("preview socket upgrade failed")
		return Hijacked()
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyLength * 4)
	for {
		conn.SetReadDeadline(time.Now().Add(previewIdleTimeout))
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Logger.Debug().Err(err).Msg("preview socket closed")
			}
			return Hijacked()
		}
		if msgType != websocket.TextMessage {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(previewWriteTimeout))
		if err := conn.WriteJSON(previewJson{Html: renderPreview(string(msg), refs)}); err != nil {
			c.Logger.Debug().Err(err).Msg("failed to write preview")
			return Hijacked()
		}
	}
}

// Images still waiting in the edit session have no public URL yet, so they
// are shown inline as data URIs.
func renderPreview(markdown string, refs *imagepipe.RefMap) string {
	found := imagepipe.Scan(markdown, imagepipe.Grammar{Placeholder: true})
	resolved := map[string]string{}
	for _, ref := range found {
		img, ok := refs.Get(ref.ID)
		if !ok {
			continue
		}
		resolved[ref.Target] = "data:" + http.DetectContentType(img.Data) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	}
	return parsing.ParseMarkdown(imagepipe.Rewrite(markdown, found, resolved), parsing.PreviewMarkdown)
}

package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/imagepipe"
)

// Commits images into a repository and serves them from raw.githubusercontent.com.
type ContentStore struct {
	Owner  string
	Repo   string
	Branch string
	Dir    string
}

var _ imagepipe.Store = ContentStore{}

func NewContentStore(cfg config.GitHubConfig) ContentStore {
	return ContentStore{
		Owner:  cfg.ImageRepoOwner,
		Repo:   cfg.ImageRepo,
		Branch: cfg.ImageBranch,
		Dir:    cfg.ImageDir,
	}
}

func (s ContentStore) filePath(filename string) string {
	return path.Join(s.Dir, filename)
}

// The URL is built from the repository coordinates rather than taken from
// the response, so it is known even before GitHub has processed the commit.
func (s ContentStore) PublicUrl(filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", RawBaseUrl, s.Owner, s.Repo, s.Branch, s.filePath(filename))
}

func (s ContentStore) Put(ctx context.Context, credential string, upload imagepipe.Upload) (string, error) {
	_, err := PutContent(ctx, credential, s.Owner, s.Repo, s.filePath(upload.Filename), PutContentRequest{
		Message: fmt.Sprintf("Add image %s", upload.Filename),
		Content: base64.StdEncoding.EncodeToString(upload.Data),
		Branch:  s.Branch,
	})
	if err != nil {
		return "", err
	}
	return s.PublicUrl(upload.Filename), nil
}

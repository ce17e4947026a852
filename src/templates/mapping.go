package templates

import (
	"fmt"
	"html/template"

	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/quillurl"
)

func UserToTemplate(u *models.User) User {
	return User{
		ID:         u.ID,
		Login:      u.Login,
		Name:       u.BestName(),
		AvatarUrl:  u.AvatarUrl,
		ProfileUrl: fmt.Sprintf("https://github.com/%s", u.Login),
		XP:         u.XP,
		Level:      u.Level,
	}
}

func SessionToTemplate(s *models.Session) *Session {
	if s == nil {
		return nil
	}
	return &Session{CSRFToken: s.CSRFToken}
}

// Content and Excerpt are left to the caller, since they need rendering.
func ArticleToTemplate(a *models.Article, author *models.User, editors []*models.User, tags []string) Article {
	result := Article{
		ID:      a.ID,
		Title:   a.Title,
		Url:     quillurl.BuildArticle(a.ID),
		Author:  UserToTemplate(author),
		Created: a.CreatedAt,
		Updated: a.UpdatedAt,
		Edited:  a.UpdatedAt.Sub(a.CreatedAt) > 0,
	}
	for _, editor := range editors {
		result.Editors = append(result.Editors, UserToTemplate(editor))
	}
	for _, tag := range tags {
		result.Tags = append(result.Tags, Tag{
			Name: tag,
			Url:  quillurl.BuildAPIArticles(quillurl.ArticleListQuery{Tag: tag}),
		})
	}
	return result
}

func (a *Article) SetContent(html string) {
	a.Content = template.HTML(html)
}

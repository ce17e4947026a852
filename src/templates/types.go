package templates

import (
	"html/template"
	"time"
)

type BaseData struct {
	Title         string
	CanonicalLink string
	Description   string

	LoginUrl  string
	LogoutUrl string

	User    *User
	Session *Session
}

type Session struct {
	CSRFToken string
}

type User struct {
	ID         int64
	Login      string
	Name       string
	AvatarUrl  string
	ProfileUrl string
	XP         int
	Level      int
}

type Tag struct {
	Name string
	Url  string
}

type Article struct {
	ID      string
	Title   string
	Url     string
	Excerpt string
	Content template.HTML

	Author  User
	Editors []User
	Tags    []Tag

	Created time.Time
	Updated time.Time
	Edited  bool
}

type ArticlePageData struct {
	BaseData
	Article Article
	CanEdit bool
}

type IndexPageData struct {
	BaseData
	Articles []Article
}

package main

import (
	_ "github.com/quillpress/quill/src/admintools"
	_ "github.com/quillpress/quill/src/migration"
	_ "github.com/quillpress/quill/src/s3dev"
	"github.com/quillpress/quill/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}

package quillurl

import (
	"net/url"
	"strings"

	"github.com/quillpress/quill/src/config"
)

type Q struct {
	Name  string
	Value string
}

var baseUrl = config.Config.BaseUrl

// Called once config has been loaded from disk.
func SetGlobalBaseUrl(fullBaseUrl string) {
	baseUrl = strings.TrimSuffix(fullBaseUrl, "/")
}

func Url(path string, query []Q) string {
	result := baseUrl + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	return strings.TrimPrefix(path, "/")
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}

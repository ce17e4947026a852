package website

import (
	"strconv"

	"github.com/quillpress/quill/src/utils"
)

// Parses a 1-based page query parameter. An empty parameter is page 1, and
// an empty listing still has one (empty) page.
func getPageInfo(pageParam string, totalItems int, itemsPerPage int) (page int, totalPages int, ok bool) {
	totalPages = utils.NumPages(totalItems, itemsPerPage)

	page = 1
	if pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil {
			return 0, 0, false
		}
		page = parsed
	}
	if page < 1 || page > totalPages {
		return 0, 0, false
	}
	return page, totalPages, true
}

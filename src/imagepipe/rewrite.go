package imagepipe

/*
Points every occurrence of a resolved reference at its URL. resolved maps a
reference's Target to the public URL. Each occurrence keeps its own alt text,
and anything not in resolved is left exactly as it was.
*/
func Rewrite(markdown string, refs []Reference, resolved map[string]string) string {
	if len(refs) == 0 || len(resolved) == 0 {
		return markdown
	}

	seen := map[Form]bool{}
	for _, ref := range refs {
		if seen[ref.Form] {
			continue
		}
		seen[ref.Form] = true

		re := ref.Form.regexp()
		markdown = re.ReplaceAllStringFunc(markdown, func(match string) string {
			groups := re.FindStringSubmatch(match)
			url, ok := resolved[groups[2]]
			if !ok {
				return match
			}
			return "![" + groups[1] + "](" + url + ")"
		})
	}
	return markdown
}

package domain

import "triposo/internal/mapping"

// thumbnailSizes is the preference order for Thumbnail.
var thumbnailSizes = []string{"thumbnail", "medium", "original"}

// thumbnail returns the first available size URL of the first image.
func thumbnail(images mapping.Value) (string, bool) {
	for _, size := range thumbnailSizes {
		if u, ok := mapping.Resolve(images.Raw(), mapping.P("0", "sizes", size, "url")).Str(); ok && u != "" {
			return u, true
		}
	}
	return "", false
}

package pdf

import (
	"path/filepath"
	"strconv"
	"strings"
)

// pageNumber returns the number in a rendered page name like
// "page-07.png", or 0.
func pageNumber(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndexByte(name, '-')
	if i < 0 {
		return 0
	}
	n, _ := strconv.Atoi(name[i+1:])
	return n
}

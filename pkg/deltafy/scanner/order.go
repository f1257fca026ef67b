package scanner

import (
	"path/filepath"
	"strings"
)

// traversalLess orders two paths under root the way Scan visits them: within
// a directory, files before subdirectories, each in name order.
func traversalLess(root, a, b string) bool {
	ca := components(root, a)
	cb := components(root, b)

	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		aLeaf := i == len(ca)-1
		bLeaf := i == len(cb)-1
		if aLeaf != bLeaf {
			return aLeaf
		}
		return ca[i] < cb[i]
	}
	// One is an ancestor of the other; the ancestor comes first.
	return len(ca) < len(cb)
}

func components(root, path string) []string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

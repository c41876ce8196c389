package transport

import "github.com/gosimple/unidecode"

// NormalizeText transliterates text into its closest ASCII representation so
// look-alike unicode characters cannot disguise content from reviewers or the
// classifier.
func NormalizeText(text string) string {
	return unidecode.Unidecode(text)
}

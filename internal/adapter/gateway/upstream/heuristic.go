package upstream

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Upstreams without a typed success flag sometimes answer with a non-2xx
// status and a human-readable message that still means "done". Matching on
// these words is a compatibility shim and is kept apart from typed decoding.

// SuccessVocabulary lists the words that mark a message as a success
var SuccessVocabulary = []string{"نجح", "تم", "success", "created"}

func hasSuccessWord(message string) bool {
	folded := foldMessage(message)
	for _, word := range SuccessVocabulary {
		if strings.Contains(folded, foldMessage(word)) {
			return true
		}
	}
	return false
}

func foldMessage(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

package normalisers

import (
	"regexp"
	"strings"
)

// GoogleDocsNormaliser strips the JavaScript and CSS residue that the Docs
// mobile basic view leaves in extracted text.
type GoogleDocsNormaliser struct{}

var (
	docsCSSImport   = regexp.MustCompile(`@import\s+url\([^)]+\);?`)
	docsCSSBlock    = regexp.MustCompile(`[.#\w\-]+\s*\{[^}]*\}`)
	docsCSSChild    = regexp.MustCompile(`\.[\w\-]+\s*>\s*[\w\-]+\s*\{[^}]*\}`)
	docsCSSBefore   = regexp.MustCompile(`\.[\w\-]+\s*>\s*[^{]*:before\s*\{[^}]*\}`)
	docsListPrefix  = regexp.MustCompile(`\.lst-kix_[\w\-]+\s*>\s+([A-Z])`)
	docsListClass   = regexp.MustCompile(`(?:ul|ol)\.lst-kix_[\w\-]+`)
	docsLstKix      = regexp.MustCompile(`\.lst-kix_[\w\-]+`)
	docsWindowCall  = regexp.MustCompile(`window\.[a-zA-Z]+\([^)]*\);?`)
	docsCounterRule = regexp.MustCompile(`counter-(?:reset|increment):\s*[^;}]+[;}]`)
	docsCSSProperty = regexp.MustCompile(`(?m)^\s*[a-z\-]+:\s*[^;\n]+;\s*$`)
)

const docsInitCall = "DOCS_initDocsMobileWeb("

func (n *GoogleDocsNormaliser) Normalise(content string) string {
	// Everything up to the init call is bootstrap script
	if i := strings.Index(content, docsInitCall); i >= 0 {
		if j := strings.Index(content[i:], ");"); j >= 0 {
			content = content[i+j+2:]
		}
	}

	content = docsCSSImport.ReplaceAllString(content, "")
	content = docsCSSBlock.ReplaceAllString(content, "")
	content = docsCSSChild.ReplaceAllString(content, "")
	content = docsCSSBefore.ReplaceAllString(content, "")
	content = docsListPrefix.ReplaceAllString(content, "$1")
	content = docsListClass.ReplaceAllString(content, "")
	content = docsLstKix.ReplaceAllString(content, "")
	content = docsWindowCall.ReplaceAllString(content, "")
	content = docsCounterRule.ReplaceAllString(content, "")
	content = docsCSSProperty.ReplaceAllString(content, "")

	return collapseBlankLines(content)
}

func (n *GoogleDocsNormaliser) Methods() []string {
	return []string{"*google-docs*"}
}

func (n *GoogleDocsNormaliser) Priority() int {
	return 80
}

package venue

import (
	"fmt"

	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
)

// pvldbStrategy DBLP期刊页,条目链接通常直接是PDF
func pvldbStrategy() Strategy {
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			return fmt.Sprintf("%sjournals/pvldb/pvldb%d.html", DBLPPrefix, p.Volume), true
		},
	}
}

// jmlrStrategy jmlr.org 卷目录页直接给出PDF链接
func jmlrStrategy() Strategy {
	const (
		titleSel = "dl dt"
		linkSel  = `a[href$=".pdf"][target="_blank"]`
	)
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			return fmt.Sprintf("https://jmlr.org/papers/v%d/", p.Volume), true
		},
		ListingEntries: func(doc *markup.Document, _ Params) ([]*markup.Node, []*markup.Node, error) {
			return doc.SelectAll(titleSel), doc.SelectAll(linkSel), nil
		},
		Selectors: []string{titleSel, linkSel},
	}
}

package venue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
)

// dblpConfURL https://dblp.org/db/conf/{dir}/{name}{year}{suffix}.html
func dblpConfURL(dir, name string, year int, suffix string) string {
	return fmt.Sprintf("%sconf/%s/%s%d%s.html", DBLPPrefix, dir, name, year, suffix)
}

// simpleDBLP 路径段与键相同的DBLP会议
func simpleDBLP(p Params) (string, bool) {
	return dblpConfURL(p.Key, p.Key, p.Year, ""), true
}

// usenixStrategy fast, osdi, atc(usenix), nsdi, uss
func usenixStrategy() Strategy {
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			name := p.Key
			if name == "atc" {
				name = "usenix"
			}
			switch name {
			case "fast", "osdi", "usenix", "nsdi", "uss":
			default:
				return "", false
			}
			suffix := ""
			if name == "usenix" && p.Year >= 1999 && p.Year <= 2006 {
				suffix = "g"
			}
			return dblpConfURL(name, name, p.Year, suffix), true
		},
		FileURL:   hrefRule(".file a", `a[href$=".pdf"]`),
		SlidesURL: hrefRule(".usenix-schedule-slides a"),
		Selectors: []string{".file a", `a[href$=".pdf"]`, ".usenix-schedule-slides a"},
	}
}

func ndssStrategy() Strategy {
	return Strategy{
		ListingURL: simpleDBLP,
		FileURL:    hrefRule(".pdf-button", `a[href$=".pdf"]`),
		SlidesURL:  hrefRule(".button-slides"),
		Selectors:  []string{".pdf-button", `a[href$=".pdf"]`, ".button-slides"},
	}
}

func aaaiStrategy() Strategy {
	return Strategy{
		ListingURL: simpleDBLP,
		FileURL:    hrefRule(".pdf"),
		Selectors:  []string{".pdf"},
	}
}

func ijcaiStrategy() Strategy {
	return Strategy{
		ListingURL: simpleDBLP,
		FileURL:    hrefRule(".btn-download:first-child"),
		Selectors:  []string{".btn-download:first-child"},
	}
}

// iclrStrategy 2016年及以前的论文在arXiv,之后在OpenReview
func iclrStrategy() Strategy {
	return Strategy{
		ListingURL: simpleDBLP,
		FileURL: func(doc *markup.Document, p Params) (string, bool) {
			if p.Year <= 2016 {
				return doc.SelectFirstHref(".download-pdf")
			}
			return doc.SelectFirstHref(`a[href^="/pdf"]`)
		},
		Selectors: []string{".download-pdf", `a[href^="/pdf"]`},
	}
}

// icmlStrategy 2010年前(ACM)不支持; 2010-2023为mlr.press; 之后为OpenReview
func icmlStrategy() Strategy {
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			if p.Year < 2010 {
				return "", false
			}
			return simpleDBLP(p)
		},
		FileURL: func(doc *markup.Document, p Params) (string, bool) {
			if p.Year <= 2023 {
				return doc.SelectFirstHref(`a[href$=".pdf"]`)
			}
			return doc.SelectFirstHref(`a[href^="/pdf"]`)
		},
		Selectors: []string{`a[href$=".pdf"]`, `a[href^="/pdf"]`},
	}
}

// neuripsStrategy DBLP目录始终是nips,文件名2019年及以前为nips
func neuripsStrategy() Strategy {
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			name := "neurips"
			if p.Year <= 2019 {
				name = "nips"
			}
			return dblpConfURL("nips", name, p.Year, ""), true
		},
		FileURL:   hrefRule(`.col a[href$=".pdf"]`),
		Selectors: []string{`.col a[href$=".pdf"]`},
	}
}

// aclStrategy acl, emnlp, naacl; 部分年份DBLP页面带 -1 后缀
func aclStrategy() Strategy {
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			switch p.Key {
			case "acl", "emnlp", "naacl":
			default:
				return "", false
			}
			suffix := ""
			if (p.Key == "acl" && p.Year >= 2012) ||
				(p.Key == "emnlp" && p.Year >= 2019 && p.Year <= 2021) ||
				(p.Key == "naacl" && p.Year >= 2018 && p.Year <= 2019) {
				suffix = "-1"
			}
			return dblpConfURL(p.Key, p.Key, p.Year, suffix), true
		},
		FileURL:   hrefRule(".acl-paper-link-block .btn-primary"),
		Selectors: []string{".acl-paper-link-block .btn-primary"},
	}
}

func rssStrategy() Strategy {
	return Strategy{
		ListingURL: simpleDBLP,
		FileURL:    hrefRule(`a[href$=".pdf"]`),
		Selectors:  []string{`a[href$=".pdf"]`},
	}
}

// cvfStrategy openaccess.thecvf.com 列表页直接给出PDF链接
func cvfStrategy() Strategy {
	const (
		titleSel = ".ptitle a"
		linkSel  = ".ptitle + dd + dd > a:first-child"
	)
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			name := strings.ToUpper(p.Key)
			if name != "CVPR" && name != "ICCV" {
				return "", false
			}
			return fmt.Sprintf("https://openaccess.thecvf.com/%s%d?day=all", name, p.Year), true
		},
		ListingEntries: func(doc *markup.Document, _ Params) ([]*markup.Node, []*markup.Node, error) {
			return doc.SelectAll(titleSel), doc.SelectAll(linkSel), nil
		},
		Selectors: []string{titleSel, linkSel},
	}
}

// eccvMinYear ecva.net 只收录2018年及以后
const eccvMinYear = 2018

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// eccvStrategy 所有年份在同一页面,按折叠按钮中的年份定位对应区块
func eccvStrategy() Strategy {
	const (
		buttonSel  = "button.accordion"
		sectionSel = "#content"
		titleSel   = ".ptitle a"
		linkSel    = ".ptitle + dd + dd > a"
	)
	return Strategy{
		ListingURL: func(p Params) (string, bool) {
			if p.Year < eccvMinYear {
				return "", false
			}
			return "https://www.ecva.net/papers.php", true
		},
		ListingEntries: func(doc *markup.Document, p Params) ([]*markup.Node, []*markup.Node, error) {
			index := -1
			for i, button := range doc.SelectAll(buttonSel) {
				text, _ := button.Text()
				m := yearPattern.FindStringSubmatch(text)
				if m == nil {
					continue
				}
				if year, _ := strconv.Atoi(m[1]); year == p.Year {
					index = i
					break
				}
			}
			if index == -1 {
				return nil, nil, fmt.Errorf("%w: 未找到%d年的区块", models.ErrListingShape, p.Year)
			}

			sections := doc.SelectAll(sectionSel)
			if index >= len(sections) {
				return nil, nil, fmt.Errorf("%w: 区块数量(%d)少于年份按钮序号(%d)", models.ErrListingShape, len(sections), index)
			}
			section := sections[index]
			return section.SelectAll(titleSel), section.SelectAll(linkSel), nil
		},
		Selectors: []string{buttonSel, sectionSel, titleSel, linkSel},
	}
}

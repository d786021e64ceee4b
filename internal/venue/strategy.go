// Package venue 各会议/期刊的抽取规则与注册表
package venue

import (
	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
)

// DBLPPrefix DBLP列表页前缀,列表解析据此选择DBLP结构
const DBLPPrefix = "https://dblp.org/db/"

// Params 构造列表URL与抽取时使用的参数
type Params struct {
	Key    string // 注册表中的键(小写)
	Year   int
	Volume int
}

// Strategy 单个场馆家族的抽取规则
// ListingEntries为nil表示列表页是DBLP结构;
// FileURL/SlidesURL为nil表示不需要访问详情页
type Strategy struct {
	// ListingURL 构造列表URL,参数不受支持时返回false
	ListingURL func(p Params) (string, bool)

	// ListingEntries 列表页直接给出论文链接时,返回标题与链接两组元素
	ListingEntries func(doc *markup.Document, p Params) (titles, links []*markup.Node, err error)

	// FileURL 从详情页抽取论文文件链接
	FileURL func(doc *markup.Document, p Params) (string, bool)

	// SlidesURL 从详情页抽取幻灯片链接
	SlidesURL func(doc *markup.Document, p Params) (string, bool)

	// Selectors 规则中用到的全部CSS选择器,注册时统一校验
	Selectors []string
}

// Descriptor 注册表中的一个场馆
type Descriptor struct {
	Key         string
	DisplayName string
	Kind        models.VenueKind
	Strategy    Strategy
}

// IsConference 是否按年份检索
func (d Descriptor) IsConference() bool {
	return d.Kind == models.KindConference
}

// Params 由请求构造抽取参数
func (d Descriptor) Params(req models.ListingRequest) Params {
	p := Params{Key: d.Key}
	if d.Kind == models.KindConference {
		p.Year = req.Year
	} else {
		p.Volume = req.Volume
	}
	return p
}

// hrefRule 返回按顺序尝试选择器的抽取函数
func hrefRule(selectors ...string) func(*markup.Document, Params) (string, bool) {
	return func(doc *markup.Document, _ Params) (string, bool) {
		return doc.TryFirstHref(selectors...)
	}
}

package venue

import (
	"fmt"
	"strings"
	"sync"

	"github.com/RecoveryAshes/PaperDownloader/internal/markup"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
)

// Registry 不可变的场馆注册表,按注册顺序保存
type Registry struct {
	order []string
	byKey map[string]Descriptor
}

// NewRegistry 构造注册表,键重复或选择器非法时返回错误
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(descriptors)),
		byKey: make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		key := strings.ToLower(d.Key)
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("场馆键重复: %s", key)
		}
		if d.Strategy.ListingURL == nil {
			return nil, fmt.Errorf("场馆 %s 缺少列表URL规则", key)
		}
		for _, sel := range d.Strategy.Selectors {
			if err := markup.Compile(sel); err != nil {
				return nil, fmt.Errorf("场馆 %s: %w", key, err)
			}
		}
		d.Key = key
		r.order = append(r.order, key)
		r.byKey[key] = d
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	conf := func(key, name string, s Strategy) Descriptor {
		return Descriptor{Key: key, DisplayName: name, Kind: models.KindConference, Strategy: s}
	}
	journal := func(key, name string, s Strategy) Descriptor {
		return Descriptor{Key: key, DisplayName: name, Kind: models.KindJournal, Strategy: s}
	}

	r, err := NewRegistry(
		// 操作系统/存储
		conf("fast", "FAST", usenixStrategy()),
		conf("osdi", "OSDI", usenixStrategy()),
		conf("atc", "USENIX ATC", usenixStrategy()),
		// 网络
		conf("nsdi", "NSDI", usenixStrategy()),
		// 安全
		conf("uss", "USENIX Security", usenixStrategy()),
		conf("ndss", "NDSS", ndssStrategy()),
		// 人工智能
		conf("aaai", "AAAI", aaaiStrategy()),
		conf("ijcai", "IJCAI", ijcaiStrategy()),
		// 计算机视觉
		conf("cvpr", "CVPR", cvfStrategy()),
		conf("iccv", "ICCV", cvfStrategy()),
		conf("eccv", "ECCV", eccvStrategy()),
		// 机器学习
		conf("iclr", "ICLR", iclrStrategy()),
		conf("icml", "ICML", icmlStrategy()),
		conf("neurips", "NeurIPS", neuripsStrategy()),
		conf("nips", "NeurIPS", neuripsStrategy()),
		// 自然语言处理
		conf("acl", "ACL", aclStrategy()),
		conf("emnlp", "EMNLP", aclStrategy()),
		conf("naacl", "NAACL", aclStrategy()),
		// 机器人
		conf("rss", "RSS", rssStrategy()),
		// 期刊
		journal("pvldb", "PVLDB(Journal)", pvldbStrategy()),
		journal("jmlr", "JMLR(Journal)", jmlrStrategy()),
	)
	if err != nil {
		panic(err)
	}
	return r
})

// Default 内置注册表,首次访问时构造
func Default() *Registry {
	return defaultRegistry()
}

// Lookup 按键查找(忽略大小写)
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}

// Get 查找,失败时返回配置错误
func (r *Registry) Get(key string) (Descriptor, error) {
	d, ok := r.Lookup(key)
	if !ok {
		return Descriptor{}, &models.ConfigError{Field: "venue", Value: key, Cause: models.ErrUnsupportedVenue}
	}
	return d, nil
}

// Keys 所有键,按注册顺序
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Descriptors 所有场馆,按注册顺序
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}

// DisplayNames 去重后的显示名,按注册顺序
func (r *Registry) DisplayNames() []string {
	seen := make(map[string]bool, len(r.order))
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		name := r.byKey[key].DisplayName
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// KeyForDisplayName 显示名反查键,返回第一个匹配
func (r *Registry) KeyForDisplayName(name string) (string, bool) {
	for _, key := range r.order {
		if r.byKey[key].DisplayName == name {
			return key, true
		}
	}
	return "", false
}

// ListingURL 构造列表URL,参数不受支持时返回配置错误
func (d Descriptor) ListingURL(p Params) (string, error) {
	u, ok := d.Strategy.ListingURL(p)
	if !ok || u == "" {
		value := fmt.Sprintf("year=%d", p.Year)
		if d.Kind == models.KindJournal {
			value = fmt.Sprintf("volume=%d", p.Volume)
		}
		return "", &models.ConfigError{Field: d.Key, Value: value, Cause: models.ErrUnsupportedParams}
	}
	return u, nil
}

// Package crawlers 提供论文下载所需的网络访问层
//
// # 概述
//
// crawlers包基于Colly实现 models.ResourceFetcher 接口,负责获取列表页、详情页
// 和论文/幻灯片文件。所有请求共享一个传输层,每个请求使用独立的collector,
// 因此可以安全地在多个worker之间并发调用。
//
// # 核心组件
//
// ## Fetcher
//
//	fetcher, err := NewFetcher(DefaultFetcherConfig(), headerManager)
//	html, err := fetcher.FetchText(ctx, "https://dblp.org/db/conf/icml/icml2021.html")
//	pdf, err := fetcher.FetchBytes(ctx, "https://proceedings.mlr.press/v139/a21a.pdf")
//	final, err := fetcher.ResolveFinalURL(ctx, "https://doi.org/10.1000/xyz")
//
// 失败统一返回 *models.FetchError,携带状态码(传输错误时为0)。
//
// ## 传输层
//
// decodingTransport 解压 br/gzip/deflate 响应,代理按目标协议从 ProxyConfig 选择,
// 未配置时使用 HTTP_PROXY/HTTPS_PROXY 环境变量。
//
// ## 重试
//
// RetryPolicy 对传输错误、429和5xx做指数退避重试,默认不重试。
//
// ## ResourceMonitor
//
// 通过gopsutil探测CPU核数和可用内存,计算并行模式下的worker数量:
//
//	monitor := NewResourceMonitor(DefaultResourceMonitorConfig())
//	workers := monitor.CalculateMaxWorkers(8)
package crawlers

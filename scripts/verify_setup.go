package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/core"
	"github.com/RecoveryAshes/PaperDownloader/internal/crawlers"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
)

// 列表页所在的站点,能访问到这些站点才能开始下载
var listingHosts = []string{
	"https://dblp.org/",
	"https://openaccess.thecvf.com/",
	"https://www.ecva.net/",
	"https://jmlr.org/",
	"https://www.vldb.org/",
}

func main() {
	configFile := flag.String("config", "", "配置文件路径")
	offline := flag.Bool("offline", false, "跳过网络检查")
	flag.Parse()

	fmt.Println("==============================================")
	fmt.Println("  PaperDownloader 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查配置
	fmt.Println()
	fmt.Println("检查配置...")
	config, err := core.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Printf("❌ %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 配置有效")
	}

	// 检查保存目录可写
	if err := checkWritable(config.Download.SaveDir); err != nil {
		fmt.Printf("❌ 保存目录不可写 [%s]: %v\n", config.Download.SaveDir, err)
		allOK = false
	} else {
		fmt.Printf("✅ 保存目录可写: %s\n", config.Download.SaveDir)
	}

	// 检查HTTP头部配置
	headerManager, err := core.NewHeaderManager("", nil)
	if err == nil {
		err = headerManager.LoadConfig()
	}
	headersOK := err == nil
	if !headersOK {
		fmt.Printf("❌ HTTP头部配置: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ HTTP头部配置有效")
	}

	// 检查列表站点可达
	if !*offline && headersOK {
		fmt.Println()
		fmt.Println("检查网络...")
		if !config.Proxy.IsEmpty() {
			fmt.Printf("使用代理: http=%q https=%q\n", config.Proxy.HTTP, config.Proxy.HTTPS)
		}
		if !checkHosts(config, headerManager) {
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build ./cmd/paperdl' 构建项目")
		fmt.Println("  2. 运行 './paperdl venues' 查看支持的会议/期刊")
		fmt.Println("  3. 运行 './paperdl --venue icml --year 2021' 开始下载")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}

// checkWritable 创建目录并写入一个临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".paperdl-"+models.NewID())
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// checkHosts 对每个站点发送HEAD请求
func checkHosts(config *core.Config, headers models.HeaderProvider) bool {
	fc := config.FetcherConfig()
	fc.Timeout = 15 * time.Second
	fc.Retries = 0
	fetcher, err := crawlers.NewFetcher(fc, headers)
	if err != nil {
		fmt.Printf("❌ 创建资源获取器失败: %v\n", err)
		return false
	}

	ok := true
	for _, host := range listingHosts {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		start := time.Now()
		final, err := fetcher.ResolveFinalURL(ctx, host)
		cancel()
		if err != nil {
			fmt.Printf("⚠️  %s 不可达: %v\n", host, err)
			ok = false
			continue
		}
		fmt.Printf("✅ %s (%s, %dms)\n", host, final, time.Since(start).Milliseconds())
	}
	return ok
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/core"
	"github.com/RecoveryAshes/PaperDownloader/internal/crawlers"
	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/pipeline"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/RecoveryAshes/PaperDownloader/internal/venue"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile  string
	headersFile string
	logLevel    string
	logFile     string
	headers     []string
	quiet       bool
	noProgress  bool

	// 下载参数(root与batch共用)
	saveDir      string
	sleepSeconds float64
	httpProxy    string
	httpsProxy   string
	parallel     bool
	maxWorkers   int
	retries      int
	report       bool

	// 单次任务参数
	venueKey string
	year     int
	volume   int
	keyword  string
	dryRun   bool

	// 批量参数
	jobsFile        string
	batchDelay      int
	continueOnError bool
)

// appConfig 在PersistentPreRunE中加载并合并命令行参数
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "paperdl",
	Short: "顶会/期刊论文批量下载工具",
	Long: `PaperDownloader - 按会议年份或期刊卷号批量下载论文

从DBLP或会议官网的论文列表出发,逐篇进入详情页找到PDF(以及部分会议的幻灯片)并保存到本地。
已存在的文件会被跳过,重复运行只会补齐缺失的论文。

示例:
  # 下载ICML 2021全部论文
  paperdl --venue icml --year 2021

  # 下载JMLR第22卷中标题匹配 graph 的论文,4个worker并行
  paperdl --venue jmlr --volume 22 --keyword graph --parallel --max-workers 4

  # 通过代理下载,并生成JSON报告
  paperdl --venue cvpr --year 2023 --https-proxy http://127.0.0.1:7890 --report

  # 批量任务
  paperdl batch -f jobs.yaml

支持的场馆: ` + strings.Join(venue.Default().Keys(), ", ") + `

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "venues" {
			return nil
		}

		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		config.MergeCLIFlags(cliOverrides(cmd))
		if err := config.Validate(); err != nil {
			return err
		}

		// 初始化日志系统
		logConfig := config.LogConfig()
		logConfig.Quiet = quiet
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 没有指定场馆时显示帮助信息
		if venueKey == "" {
			return cmd.Help()
		}

		key, err := ResolveVenueKey(venue.Default(), venueKey)
		if err != nil {
			return err
		}
		if err := ValidateFlags(year, volume, keyword); err != nil {
			return err
		}

		req := models.ListingRequest{
			VenueKey:     key,
			Year:         year,
			Volume:       volume,
			SaveDir:      appConfig.Download.SaveDir,
			SleepSeconds: appConfig.Download.SleepSeconds,
			Keyword:      keyword,
			Proxy:        appConfig.Proxy,
			Parallel:     appConfig.Download.Parallel,
		}

		fetcher, err := newFetcher()
		if err != nil {
			return err
		}

		ctx, token, stop := withSignals(context.Background())
		defer stop()

		downloader := core.NewDownloader(fetcher, downloaderOptions(token))
		if _, err := downloader.Run(ctx, req); err != nil {
			if errors.Is(err, models.ErrNothingToDo) {
				return nil
			}
			return err
		}
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "按YAML任务文件批量下载",
	Long: `按YAML任务文件依次执行多个下载任务

任务文件示例:
  jobs:
    - venue: icml
      year: 2021
    - venue: jmlr
      volume: 22
      keyword: graph
      save_dir: paper/jmlr22

未指定save_dir/keyword的任务使用命令行或配置文件中的值。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jobsFile == "" {
			return fmt.Errorf("必须通过 -f 指定任务文件")
		}
		if batchDelay < 0 {
			return fmt.Errorf("批量延迟不能为负数,当前值: %d", batchDelay)
		}

		jobs, err := core.LoadBatchJobs(jobsFile)
		if err != nil {
			return err
		}

		fetcher, err := newFetcher()
		if err != nil {
			return err
		}

		ctx, token, stop := withSignals(context.Background())
		defer stop()

		template := models.ListingRequest{
			SaveDir:      appConfig.Download.SaveDir,
			SleepSeconds: appConfig.Download.SleepSeconds,
			Proxy:        appConfig.Proxy,
			Parallel:     appConfig.Download.Parallel,
		}
		bd := core.NewBatchDownloader(fetcher, template, downloaderOptions(token),
			time.Duration(batchDelay)*time.Second, continueOnError)

		summary, err := bd.Run(ctx, jobs)
		if err != nil {
			return fmt.Errorf("批量下载中断: %w", err)
		}
		if summary.FailCount > 0 {
			return fmt.Errorf("%d个任务失败", summary.FailCount)
		}

		utils.Info("✨ 批量下载任务完成!")
		return nil
	},
}

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "列出支持的会议和期刊",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, d := range venue.Default().Descriptors() {
			field := "year"
			if !d.IsConference() {
				field = "volume"
			}
			fmt.Fprintf(out, "%-10s %-18s --%s\n", d.Key, d.DisplayName, field)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("PaperDownloader %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// cliOverrides 只收集用户显式指定的参数
func cliOverrides(cmd *cobra.Command) core.CLIOverrides {
	flags := cmd.Flags()
	var o core.CLIOverrides
	if flags.Changed("save-dir") {
		o.SaveDir = &saveDir
	}
	if flags.Changed("sleep-time-per-paper") {
		o.SleepSeconds = &sleepSeconds
	}
	if flags.Changed("parallel") {
		o.Parallel = &parallel
	}
	if flags.Changed("max-workers") {
		o.MaxWorkers = &maxWorkers
	}
	if flags.Changed("retries") {
		o.Retries = &retries
	}
	if flags.Changed("http-proxy") {
		o.HTTPProxy = &httpProxy
	}
	if flags.Changed("https-proxy") {
		o.HTTPSProxy = &httpsProxy
	}
	if flags.Changed("log-file") {
		o.LogFile = &logFile
	}
	if flags.Changed("log-level") {
		o.LogLevel = &logLevel
	}
	if flags.Changed("report") {
		o.Report = &report
	}
	return o
}

// newFetcher 创建带头部管理的资源获取器
func newFetcher() (*crawlers.Fetcher, error) {
	headerManager, err := core.NewHeaderManager(headersFile, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	if err := headerManager.LoadConfig(); err != nil {
		return nil, fmt.Errorf("加载HTTP头部配置失败: %w", err)
	}
	utils.Debugf("当前HTTP头部: %v", headerManager.GetSafeHeaders())

	return crawlers.NewFetcher(appConfig.FetcherConfig(), headerManager)
}

// downloaderOptions 由配置构造下载选项
func downloaderOptions(token *pipeline.Token) core.DownloaderOptions {
	opts := core.DownloaderOptions{
		MaxWorkers: appConfig.Download.MaxWorkers,
		DryRun:     dryRun,
		Token:      token,
	}
	if appConfig.Report.Enabled {
		opts.ReportDir = appConfig.Report.Dir
	}
	opts.MetricsFile = appConfig.Report.MetricsFile
	if !noProgress && !dryRun {
		opts.Progress = newProgressReporter(os.Stdout).Update
	}
	return opts
}

func init() {
	// 全局参数
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "配置文件路径")
	pf.StringVar(&headersFile, "headers-file", "", "HTTP头部配置文件 (默认 configs/headers.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	pf.StringVar(&logFile, "log-file", "", "日志文件路径 (默认 logs/"+utils.DefaultLogFile+")")
	pf.StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	pf.BoolVarP(&quiet, "quiet", "q", false, "控制台只输出警告和错误")
	pf.BoolVar(&noProgress, "no-progress", false, "不显示进度条")

	// 下载参数
	pf.StringVar(&saveDir, "save-dir", "paper", "论文保存目录")
	pf.Float64Var(&sleepSeconds, "sleep-time-per-paper", 2, "每篇论文下载后的等待时间(秒)")
	pf.StringVar(&httpProxy, "http-proxy", "", "HTTP代理地址")
	pf.StringVar(&httpsProxy, "https-proxy", "", "HTTPS代理地址")
	pf.BoolVar(&parallel, "parallel", false, "并行下载")
	pf.IntVar(&maxWorkers, "max-workers", 8, "并行模式的worker上限 (1-64)")
	pf.IntVar(&retries, "retries", 0, "请求失败重试次数 (0-10)")
	pf.BoolVar(&report, "report", false, "生成JSON运行报告")

	// 单次任务参数
	rootCmd.Flags().StringVar(&venueKey, "venue", "", "会议/期刊 (见 paperdl venues)")
	rootCmd.Flags().IntVar(&year, "year", 0, "会议年份")
	rootCmd.Flags().IntVar(&volume, "volume", 0, "期刊卷号")
	rootCmd.Flags().StringVar(&keyword, "keyword", "", "标题关键词(正则,忽略大小写)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "只列出将要下载的论文")

	// 批量参数
	batchCmd.Flags().StringVarP(&jobsFile, "file", "f", "", "YAML任务文件")
	batchCmd.Flags().IntVar(&batchDelay, "batch-delay", 5, "任务之间的等待时间(秒)")
	batchCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "任务失败后继续执行")

	// 添加子命令
	rootCmd.AddCommand(batchCmd, venuesCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

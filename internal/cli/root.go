// Package cli 实现 pagetrans 命令行入口。
// 读入一份 HTML 文档，整页翻译后写出；--watch 模式下继续从标准
// 输入读取后续插入的 HTML 片段，模拟宿主页面的动态变更流。
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nerdneilsfield/go-page-translator/internal/cache"
	"github.com/nerdneilsfield/go-page-translator/internal/config"
	"github.com/nerdneilsfield/go-page-translator/internal/dom"
	"github.com/nerdneilsfield/go-page-translator/internal/logger"
	"github.com/nerdneilsfield/go-page-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-page-translator/internal/settings"
	"github.com/nerdneilsfield/go-page-translator/internal/status"
	"github.com/nerdneilsfield/go-page-translator/internal/watch"
	"github.com/nerdneilsfield/go-page-translator/pkg/streamclient"
)

var (
	// 命令行标志变量
	cfgFile       string
	settingsPath  string
	outputPath    string
	endpoint      string
	apiKey        string
	model         string
	targetLang    string
	concurrency   int
	watchMode     bool
	debugMode     bool
	listLanguages bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagetrans [flags] input_file",
		Short: "pagetrans 把 HTML 页面整页翻译成目标语言",
		Long: `pagetrans 读取一份 HTML 文档（"-" 表示标准输入），把可见文本按
结构切成翻译单元，去重合批后经流式通道翻译，再把译文写回原来
的位置。行内标记（链接、加粗等）随块级单元整体送翻，结构不变。
译文页面写到标准输出，或 -o 指定的文件。

--watch 模式下，整页翻译完成后继续从标准输入逐行读取后续插入
的 HTML 片段（模拟页面的动态内容），静默期后增量翻译，EOF 结束。`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args: func(cmd *cobra.Command, args []string) error {
			if listLanguages {
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listLanguages {
				for _, name := range SupportedLanguageNames() {
					fmt.Println(name)
				}
				return nil
			}
			return runTranslate(cmd.Context(), args[0], outputPath)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认 ~/.pagetrans.yaml)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "设置存储文件路径 (默认 ~/.pagetrans/settings.toml)")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "流式翻译服务地址")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "服务凭证")
	rootCmd.Flags().StringVar(&model, "model", "", "模型 ID")
	rootCmd.Flags().StringVarP(&targetLang, "to", "t", "", "目标语言 (BCP 47 标签或英文名)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件 (默认标准输出)")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "同时打开的流通道数")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "整页翻译后继续监听标准输入的片段")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "调试日志")
	rootCmd.Flags().BoolVar(&listLanguages, "list-languages", false, "列出支持的目标语言")

	return rootCmd
}

// runTranslate 执行一次整页翻译（以及可选的 watch 循环）
func runTranslate(ctx context.Context, inputPath, outputPath string) error {
	log := logger.NewLogger(debugMode)
	defer func() {
		_ = log.Sync()
	}()

	if watchMode && inputPath == "-" {
		return fmt.Errorf("--watch reads fragments from stdin, input must be a file")
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)

	store, err := openSettings()
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	// 解析目标语言；设置存储里的最近语言随选择更新
	tag, err := ResolveLanguage(cfg.TargetLang)
	if err != nil {
		return err
	}
	resolved := tag.String()
	if resolved != store.TargetLang() {
		if err := store.SetTargetLang(resolved); err != nil {
			log.Warn("persisting target language failed", zap.Error(err))
		}
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = store.Endpoint()
	}
	if cfg.Endpoint == "" {
		return streamclient.ErrNoEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = store.Model()
	}

	log.Info("translating page",
		zap.String("input", inputPath),
		zap.String("target", resolved),
		zap.String("endpoint", cfg.Endpoint),
	)

	doc, err := loadDocument(inputPath)
	if err != nil {
		return err
	}

	client := streamclient.New(streamclient.Config{
		Endpoint:       cfg.Endpoint,
		APIKey:         cfg.APIKey,
		TargetLang:     resolved,
		PreserveFormat: true,
		Timeout:        time.Duration(cfg.RequestTimeout) * time.Second,
		Retry: streamclient.RetryConfig{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  time.Duration(cfg.RetryInitialDelayMs) * time.Millisecond,
			MaxDelay:      15 * time.Second,
			BackoffFactor: 2.0,
		},
	}, log)

	// 配置了模型时挂上 OpenAI 兼容后备通道：端点不讲 SSE 则逐条
	// 走 chat completion，端点地址兼作网关基地址
	var runner pipeline.StreamRunner = client
	if cfg.Model != "" {
		fallback := streamclient.NewFallback(streamclient.FallbackConfig{
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			TargetLang: resolved,
			Timeout:    time.Duration(cfg.RequestTimeout) * time.Second,
		}, log)
		runner = streamclient.NewCompat(client, fallback, log)
	}

	reporter := status.NewTerminalReporter()
	translationCache := cache.New(cfg.CacheCapacity)
	session, err := pipeline.NewSession(runner,
		pipeline.WithConfig(pipeline.Config{
			TargetLang:    resolved,
			MaxBatchItems: cfg.MaxBatchItems,
			MaxBatchChars: cfg.MaxBatchChars,
			Concurrency:   cfg.Concurrency,
		}),
		pipeline.WithCache(translationCache),
		pipeline.WithRunGuard(store),
		pipeline.WithReporter(reporter),
		pipeline.WithLogger(log),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	state, err := session.TranslatePage(ctx, doc)
	if err != nil {
		return err
	}

	if watchMode {
		if err := watchStdin(ctx, session, doc, cfg, log); err != nil {
			return err
		}
	}

	if err := writeDocument(outputPath, doc); err != nil {
		return err
	}

	// 摘要走 stderr，不污染写到 stdout 的 HTML
	renderSummaryTable(os.Stderr, state, translationCache.Stats(), time.Since(start))
	return nil
}

// watchStdin 把标准输入的每一行当作一个新插入的 HTML 片段，
// 挂到文档 body 末尾并通知观察器。EOF 时冲洗剩余内容。
func watchStdin(ctx context.Context, session *pipeline.Session, doc *html.Node, cfg *config.Config, log *zap.Logger) error {
	body := findBody(doc)
	if body == nil {
		return fmt.Errorf("document has no body element")
	}

	// 观察时的分类与流式回写共用会话的 DOM 互斥
	classify := func(root *html.Node) []*dom.Unit {
		var units []*dom.Unit
		session.WithDOM(func() {
			units = session.Classifier().Classify(root)
		})
		return units
	}

	watcher := watch.New(
		classify,
		func(units []*dom.Unit) {
			if _, err := session.RunUnits(ctx, units); err != nil {
				log.Error("mutation run failed", zap.Error(err))
			}
		},
		watch.Config{
			Quiet:      cfg.DebounceQuiet,
			MaxPending: cfg.DebounceMaxPending,
		},
		log,
	)
	defer watcher.Stop()

	log.Info("watching stdin for inserted fragments (EOF to finish)")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		roots, err := parseFragment(line)
		if err != nil {
			log.Warn("skipping unparsable fragment", zap.Error(err))
			continue
		}
		session.WithDOM(func() {
			for _, n := range roots {
				body.AppendChild(n)
			}
		})
		watcher.Observe(roots...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	watcher.Flush()
	return nil
}

// applyFlags 用命令行标志覆盖配置
func applyFlags(cfg *config.Config) {
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if model != "" {
		cfg.Model = model
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if debugMode {
		cfg.Debug = true
	}
}

// openSettings 打开设置存储
func openSettings() (*settings.Store, error) {
	path := settingsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".pagetrans", settings.DefaultFileName)
	}
	return settings.Open(path)
}

// loadDocument 解析输入 HTML 文档（"-" 表示标准输入）
func loadDocument(path string) (*html.Node, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse input HTML: %w", err)
	}
	nodes := gq.Nodes
	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty document %s", path)
	}
	return nodes[0], nil
}

// writeDocument 渲染文档到输出文件（空路径写到标准输出）
func writeDocument(path string, doc *html.Node) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	return w.Flush()
}

// parseFragment 以 body 为上下文解析一段 HTML 片段
func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

// findBody 在文档树中定位 body 元素
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

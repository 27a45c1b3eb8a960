// Package main is the entry point for hello-web.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hello-web/internal/client"
	"hello-web/internal/config"
	"hello-web/internal/logger"
	"hello-web/internal/metrics"
	"hello-web/internal/server"

	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
)

// options はコマンドラインフラグの値
type options struct {
	configFile  string
	addr        string
	threads     int
	password    string
	noShutdown  bool
	root        string
	maxConns    int
	metricsAddr string
	logLevel    string
	stop        bool
}

func main() {
	var opts options

	// フラグ定義
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.StringVar(&opts.addr, "addr", "", "待ち受けアドレス (例: 127.0.0.1:7878)")
	flag.IntVar(&opts.threads, "threads", 0, "スレッドプールのワーカー数")
	flag.StringVar(&opts.password, "password", "", "停止パスワード")
	flag.BoolVar(&opts.noShutdown, "disable-shutdown", false, "POST /shutdown による停止を無効にする")
	flag.StringVar(&opts.root, "root", "", "ページを配信するディレクトリ（省略時は埋め込みページ）")
	flag.IntVar(&opts.maxConns, "max-conns", 0, "同時接続数の上限")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus メトリクスのアドレス (例: :9100)")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.BoolVar(&opts.stop, "stop", false, "稼働中のサーバーに停止を要求する")
	showVersion := flag.Bool("version", false, "バージョンを表示")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `hello-web - Static page server backed by a fixed-size thread pool

Usage:
  hello-web [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デフォルト設定で起動
  hello-web

  # 8 ワーカーで起動し、メトリクスを公開
  hello-web --threads 8 --metrics-addr :9100

  # 稼働中のサーバーを停止
  hello-web --stop --password password
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("hello-web version %s\n", version)
		return
	}

	fileConfig, cfg, err := buildConfig(opts)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	if opts.stop {
		if err := requestStop(cfg); err != nil {
			logger.Error("", "停止要求エラー: %v", err)
			os.Exit(1)
		}
		return
	}

	metricsAddr := fileConfig.Metrics.Address
	if opts.metricsAddr != "" {
		metricsAddr = opts.metricsAddr
	}

	if err := run(cfg, metricsAddr); err != nil {
		logger.Error("", "サーバーエラー: %v", err)
		os.Exit(1)
	}
}

// buildConfig は設定ファイルとフラグからサーバー設定を構築する
func buildConfig(opts options) (*config.FileConfig, server.Config, error) {
	fileConfig := &config.FileConfig{}

	// 1. 設定ファイルから読み込み
	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, server.Config{}, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		fileConfig = loaded
	}

	// 2. フラグでオーバーライド
	if opts.logLevel != "" {
		fileConfig.Log.Level = opts.logLevel
	}
	if opts.noShutdown {
		if opts.password != "" {
			return nil, server.Config{}, fmt.Errorf("-password and -disable-shutdown are mutually exclusive")
		}
		fileConfig.Server.ShutdownPassword = ""
		fileConfig.Server.DisableShutdown = true
	}
	if opts.threads < 0 || opts.maxConns < 0 {
		return nil, server.Config{}, fmt.Errorf("threads and max-conns must be non-negative")
	}

	if err := fileConfig.Validate(); err != nil {
		return nil, server.Config{}, fmt.Errorf("設定検証エラー: %w", err)
	}

	level, err := fileConfig.LogLevel()
	if err != nil {
		return nil, server.Config{}, err
	}
	logger.Default.SetLevel(level)

	cfg, err := fileConfig.ToServerConfig()
	if err != nil {
		return nil, server.Config{}, fmt.Errorf("設定変換エラー: %w", err)
	}

	if opts.addr != "" {
		cfg.Address = opts.addr
	}
	if opts.threads > 0 {
		cfg.Threads = opts.threads
	}
	if opts.password != "" {
		cfg.ShutdownPassword = opts.password
	}
	if opts.root != "" {
		cfg.DocRoot = opts.root
	}
	if opts.maxConns > 0 {
		cfg.MaxConnections = opts.maxConns
	}

	return fileConfig, cfg, nil
}

// requestStop は稼働中のサーバーに停止パスワードを送る
func requestStop(cfg server.Config) error {
	c := client.New("http://"+cfg.Address, 10*time.Second)
	ok, err := c.Shutdown(cfg.ShutdownPassword)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("shutdown rejected by %s", cfg.Address)
	}
	fmt.Printf("Shutdown accepted by %s\n", cfg.Address)
	return nil
}

// run はサーバーと（設定されていれば）メトリクスサーバーを起動する
func run(cfg server.Config, metricsAddr string) error {
	fmt.Println("hello-web - Static page server")
	fmt.Println("==============================")
	fmt.Printf("Listening on http://%s\n", cfg.Address)
	fmt.Printf("Threads: %d\n", cfg.Threads)
	if metricsAddr != "" {
		fmt.Printf("Metrics: http://%s/metrics\n", metricsAddr)
	}
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	// シグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New("hello_web")
	srv, err := server.New(cfg, server.WithObserver(m))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	g.Go(func() error {
		// サーバー停止でメトリクスサーバーも止める
		defer cancel()
		return srv.ListenAndServe(ctx)
	})
	if metricsAddr != "" {
		g.Go(func() error {
			return m.Serve(ctx, metricsAddr)
		})
	}

	err = g.Wait()
	cancel()

	fmt.Println("Shutting down...")
	logger.Info("", "%s", m.Snapshot())
	return err
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/config"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// cliOptions 命令行参数
type cliOptions struct {
	pattern  string
	search   string
	screen   bool
	out      string
	lang     string
	verify   bool
	jsonOut  bool
	serve    bool
	httpAddr string
	grpcAddr string
	server   string
	logLevel string
	save     bool
}

func main() {
	var opts cliOptions
	flag.StringVar(&opts.pattern, "pattern", "", "模板图像文件（要查找的脸）")
	flag.StringVar(&opts.search, "search", "", "搜索图像文件")
	flag.BoolVar(&opts.screen, "screen", false, "截取屏幕作为搜索图像")
	flag.StringVar(&opts.out, "out", "", "保存标注后的图像 (.png/.jpg)")
	flag.StringVar(&opts.lang, "lang", "", "消息语言 (pl/en/zh)")
	flag.BoolVar(&opts.verify, "verify", false, "用 OpenCV 交叉校验匹配位置")
	flag.BoolVar(&opts.jsonOut, "json", false, "以 JSON 输出识别结果")
	flag.BoolVar(&opts.serve, "serve", false, "启动 HTTP 和 gRPC 服务")
	flag.StringVar(&opts.httpAddr, "http", "", "HTTP 监听地址 (例: :8080)")
	flag.StringVar(&opts.grpcAddr, "grpc", "", "gRPC 监听地址 (例: :50051)")
	flag.StringVar(&opts.server, "server", "", "远程 gRPC 服务地址，设置后在远程识别")
	flag.StringVar(&opts.logLevel, "log-level", "", "日志级别 (debug/info/warn/error)")
	flag.BoolVar(&opts.save, "save", false, "保存配置到本地")
	showVersion := flag.Bool("version", false, "显示版本信息")
	showHelp := flag.Bool("help", false, "显示帮助信息")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	// 加载配置，命令行参数优先级高于配置文件和环境变量
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}
	applyFlags(cfg, &opts)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 配置无效: %v\n", err)
		os.Exit(1)
	}
	if err := setupLogger(cfg); err != nil {
		fmt.Printf("[WARN] %v\n", err)
	}
	defer logger.Default().Close()

	if opts.save {
		if err := config.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", config.GetDefaultManager().GetConfigFile())
		}
	}

	if opts.serve {
		if err := serve(cfg); err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.pattern == "" || (opts.search == "" && !opts.screen) {
		if opts.save {
			return
		}
		fmt.Println("[ERROR] 缺少图像，请使用 -pattern 和 -search（或 -screen）参数")
		printHelp()
		os.Exit(1)
	}

	found, err := run(cfg, &opts)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	if !found {
		os.Exit(2)
	}
}

// applyFlags 用命令行参数覆盖配置
func applyFlags(cfg *config.Config, opts *cliOptions) {
	if opts.httpAddr != "" {
		cfg.HTTPAddr = opts.httpAddr
	}
	if opts.grpcAddr != "" {
		cfg.GRPCAddr = opts.grpcAddr
	}
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}
	if opts.lang != "" {
		cfg.Language = opts.lang
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
}

// setupLogger 按配置设置全局 logger
func setupLogger(cfg *config.Config) error {
	l := logger.Default()
	l.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := l.SetFile(cfg.LogFile); err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
	}
	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("facefinder v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("facefinder - 在照片中查找给定的脸")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  facefinder -pattern FILE (-search FILE | -screen) [选项]")
	fmt.Println("  facefinder -serve [-http ADDR] [-grpc ADDR]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -pattern string     模板图像文件（要查找的脸）")
	fmt.Println("  -search string      搜索图像文件")
	fmt.Println("  -screen             截取屏幕作为搜索图像")
	fmt.Println("  -out string         保存标注后的图像 (.png/.jpg)")
	fmt.Println("  -lang string        消息语言 (pl/en/zh)，默认 pl")
	fmt.Println("  -verify             用 OpenCV 交叉校验匹配位置")
	fmt.Println("  -json               以 JSON 输出识别结果")
	fmt.Println("  -serve              启动 HTTP 和 gRPC 服务")
	fmt.Println("  -http string        HTTP 监听地址 (默认 :8080)")
	fmt.Println("  -grpc string        gRPC 监听地址 (默认 :50051)")
	fmt.Println("  -server string      远程 gRPC 服务地址，设置后在远程识别")
	fmt.Println("  -log-level string   日志级别 (debug/info/warn/error)")
	fmt.Println("  -save               保存配置到本地")
	fmt.Println("  -version            显示版本信息")
	fmt.Println("  -help               显示帮助信息")
	fmt.Println()
	fmt.Println("退出码: 0 找到, 2 未找到, 1 出错")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 在照片中查找并保存标注图")
	fmt.Println("  facefinder -pattern face.png -search photo.jpg -out result.png")
	fmt.Println()
	fmt.Println("  # 在当前屏幕上查找")
	fmt.Println("  facefinder -pattern face.png -screen -lang en")
	fmt.Println()
	fmt.Println("  # 启动服务")
	fmt.Println("  facefinder -serve -http :8080 -grpc :50051")
	fmt.Println()
	fmt.Println("  # 使用远程服务识别")
	fmt.Println("  facefinder -server localhost:50051 -pattern face.png -search photo.jpg")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}

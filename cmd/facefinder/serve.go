package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zoeyai/facefinder/pkg/config"
	"github.com/zoeyai/facefinder/pkg/grpc"
	"github.com/zoeyai/facefinder/pkg/recognize"
	"github.com/zoeyai/facefinder/pkg/server"
)

// shutdownTimeout 等待进行中请求完成的时间
const shutdownTimeout = 10 * time.Second

// serve 启动 HTTP 和 gRPC 服务，直到收到中断信号或任一服务出错
func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServers(ctx, cfg)
}

// runServers 在同一个 errgroup 中运行各服务，ctx 取消或任一服务出错时全部停止
func runServers(ctx context.Context, cfg *config.Config) error {
	g, ctx := errgroup.WithContext(ctx)

	if cfg.HTTPAddr != "" {
		httpSrv := server.New(server.Options{
			Annotate:       cfg.Annotate,
			Label:          cfg.Label,
			ThumbMax:       cfg.ThumbMax,
			MaxUploadBytes: cfg.MaxUploadBytes(),
			DefaultLang:    cfg.Language,
		})
		g.Go(func() error { return httpSrv.ListenAndServe(cfg.HTTPAddr) })
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	if cfg.GRPCAddr != "" {
		rec := recognize.New(
			recognize.WithAnnotate(cfg.Annotate),
			recognize.WithLabel(cfg.Label),
			recognize.WithThumbMax(cfg.ThumbMax),
		)
		grpcSrv := grpc.NewServer(rec, grpc.MessageLimitOptions(int(cfg.MaxUploadBytes()))...)
		g.Go(func() error { return grpcSrv.ListenAndServe(cfg.GRPCAddr) })
		g.Go(func() error {
			<-ctx.Done()
			grpcSrv.Stop()
			return nil
		})
	}

	printBanner(cfg)

	err := g.Wait()
	fmt.Println("[INFO] 已退出")
	return err
}

// printBanner 打印启动信息
func printBanner(cfg *config.Config) {
	fmt.Println("========================================")
	fmt.Printf("  facefinder v%s\n", Version)
	fmt.Println("========================================")
	if cfg.HTTPAddr != "" {
		fmt.Printf("HTTP:  %s\n", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "" {
		fmt.Printf("gRPC:  %s\n", cfg.GRPCAddr)
	}
	fmt.Printf("语言:  %s\n", cfg.Language)
	fmt.Println()
	fmt.Println("[INFO] 按 Ctrl+C 退出")
}

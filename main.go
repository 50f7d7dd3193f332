package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tradelens/alert-engine/internal/repo"
	"github.com/tradelens/alert-engine/internal/schedule"
	"github.com/tradelens/alert-engine/internal/service/alert"
	marketbinance "github.com/tradelens/alert-engine/internal/service/market/binance"
	"github.com/tradelens/alert-engine/internal/service/notification"
	"github.com/tradelens/alert-engine/internal/service/scanner"
	signalsvc "github.com/tradelens/alert-engine/internal/service/signal"
	"github.com/tradelens/alert-engine/internal/service/trigger"
	"github.com/tradelens/alert-engine/internal/web"
	"github.com/tradelens/alert-engine/ioc"
)

func initViper() (seed bool) {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	seedFlag := pflag.Bool("seed", false, "seed demo data on startup")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
	return *seedFlag
}

func main() {
	seed := initViper()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}

	alertRepo := repo.NewAlertRepo(db)
	eventRepo := repo.NewEventRepo(db)
	queueRepo := repo.NewQueueRepo(db)
	deviceRepo := repo.NewDeviceRepo(db)
	groupRepo := repo.NewGroupRepo(db)
	signalRepo := repo.NewSignalRepo(db)
	scanRepo := repo.NewScanRepo(db)

	marketSvc := marketbinance.NewService(ioc.InitBinanceCli())
	pushSvc := ioc.InitPushCli()

	token := viper.GetString("server.token")
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	selfHost := viper.GetString("server.self_host")
	if selfHost == "" {
		selfHost = "localhost:8080"
	}
	dispatchTrigger := trigger.NewInvoker(
		fmt.Sprintf("http://%s/tasks/dispatch", selfHost),
		token,
	)

	evaluator := alert.NewEvaluator(alertRepo, eventRepo, queueRepo, marketSvc,
		alert.WithDispatchTrigger(dispatchTrigger))
	dispatcher := notification.NewDispatcher(queueRepo, deviceRepo, pushSvc)
	publisher := signalsvc.NewPublisher(groupRepo, signalRepo, queueRepo)
	moverScanner := scanner.NewMoverScanner(scanner.NewMAAnalyzer(), scanRepo, alertRepo, queueRepo, marketSvc)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if seed {
		if err := repo.NewSeeder(db).Seed(ctx); err != nil {
			panic(err)
		}
	}

	evaluateInterval := viper.GetDuration("evaluator.interval")
	if evaluateInterval <= 0 {
		evaluateInterval = time.Minute
	}
	go schedule.Loop(ctx, alert.NewEvaluateTask(evaluator), evaluateInterval)

	// 重试任务靠独立的派发循环排空, 不依赖评估侧的触发
	dispatchInterval := viper.GetDuration("dispatcher.interval")
	if dispatchInterval <= 0 {
		dispatchInterval = time.Minute
	}
	go schedule.Loop(ctx, notification.NewDispatchTask(dispatcher), dispatchInterval)

	scanInterval := viper.GetDuration("scanner.interval")
	if scanInterval <= 0 {
		scanInterval = 15 * time.Minute
	}
	watchlist := viper.GetStringSlice("scanner.watchlist")
	if len(watchlist) > 0 {
		go schedule.Loop(ctx, scanner.NewScanTask(moverScanner, watchlist), scanInterval)
	}

	server := web.NewServer(evaluator, dispatcher, publisher, token)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}

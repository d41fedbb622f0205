// Command dircc compiles every regular file in a source directory with a
// C / C++ compiler toolchain, placing one executable per input into a build
// directory that is recreated empty on every run. By default it performs a
// single build and exits; with -serve it exposes builds over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/buildforge/dircc/artifact"
	"github.com/buildforge/dircc/builddir"
	"github.com/buildforge/dircc/builder"
	"github.com/buildforge/dircc/cmd/dircc/config"
	restbuilder "github.com/buildforge/dircc/cmd/dircc/rest_builder"
	"github.com/buildforge/dircc/cmd/dircc/version"
	wsbuilder "github.com/buildforge/dircc/cmd/dircc/ws_builder"
	"github.com/buildforge/dircc/toolchain"
	"github.com/buildforge/dircc/worker"
)

const artifactCheckInterval = 15 * time.Second

var logger *zap.Logger

func main() {
	conf := loadConf()
	if conf.Version {
		fmt.Println(version.Version)
		return
	}
	initLogger(conf)
	defer logger.Sync()
	if ce := logger.Check(zap.InfoLevel, "Config loaded"); ce != nil {
		ce.Write(zap.String("config", fmt.Sprintf("%+v", conf)))
	}

	tcs := loadToolchains(conf)
	store := newStore(conf)
	work := newWorker(conf)
	work.Start()
	logger.Info("Worker started",
		zap.Int("parallelism", conf.Parallelism),
		zap.String("srcDir", conf.SrcDir),
		zap.String("buildDir", conf.BuildDir))

	if !conf.Serve {
		code := runOnce(conf, tcs, work, store)
		work.Shutdown()
		logger.Sync()
		os.Exit(code)
	}

	svc := newBuildService(conf, tcs, work, store, logger)
	servers := []initFunc{
		cleanUpWorker(work),
		initHTTPServer(conf, svc, store),
		initMonitorHTTPServer(conf),
	}

	// Gracefully shutdown, with signal / HTTP server / Monitor HTTP server
	sig := make(chan os.Signal, 1+len(servers))

	stops := []stopFunc{}
	for _, s := range servers {
		start, stop := s()
		if start != nil {
			go func() {
				start()
				sig <- os.Interrupt
			}()
		}
		if stop != nil {
			stops = append(stops, stop)
		}
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); sent && err != nil {
		logger.Warn("Notify systemd failed", zap.Error(err))
	}

	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	signal.Reset(syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Shutting Down...")
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	ctx, cancel := context.WithTimeout(context.TODO(), time.Second*3)
	defer cancel()

	var eg errgroup.Group
	for _, s := range stops {
		eg.Go(func() error {
			return s(ctx)
		})
	}

	go func() {
		logger.Info("Shutdown Finished", zap.Error(eg.Wait()))
		cancel()
	}()
	<-ctx.Done()
}

// runOnce performs a single build against the configured directories and
// returns the process exit code
func runOnce(conf *config.Config, tcs *toolchain.Set, work worker.Worker, store artifact.Store) int {
	b := builder.New(builder.Config{
		SrcDir:       conf.SrcDir,
		BuildDir:     builddir.Dir{Root: conf.BuildDir},
		OutputSuffix: conf.OutputSuffix,
		Toolchains:   tcs,
		Worker:       work,
		Store:        store,
		Echo:         os.Stdout,
		Logger:       logger,
	})
	sum, err := b.Run(context.Background())
	if err != nil {
		logger.Error("Build failed", zap.Error(err))
		return 1
	}

	for _, r := range sum.Results {
		if r.Succeeded() {
			continue
		}
		if r.Stderr != "" {
			fmt.Fprint(os.Stderr, r.Stderr)
			if !strings.HasSuffix(r.Stderr, "\n") {
				fmt.Fprintln(os.Stderr)
			}
		}
		if r.Error != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", r.Name, r.Error)
		}
	}
	fmt.Printf("%d/%d compiled, %d failed (%v)\n",
		sum.Succeeded, sum.Total, sum.Failed, sum.Duration.Round(time.Millisecond))
	return sum.ExitCode()
}

func loadConf() *config.Config {
	var conf config.Config
	if err := conf.Load(); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalln("load config failed ", err)
	}
	return &conf
}

func loadToolchains(conf *config.Config) *toolchain.Set {
	tcs, err := toolchain.Load(conf.ToolchainConf)
	if err != nil {
		logger.Fatal("Load toolchain config failed", zap.Error(err))
	}
	flags, err := toolchain.LoadExtraFlags(conf.FlagsConf)
	if err != nil {
		logger.Fatal("Load flags config failed", zap.Error(err))
	}
	tcs.ExtraFlags = flags
	if conf.LegacyMatch {
		tcs.LegacyMatch = true
	}
	return tcs
}

func newStore(conf *config.Config) artifact.Store {
	store := artifact.NewLocalStore(conf.BuildDir)
	if conf.EnableMetrics {
		store = newMetricsStore(store)
	}
	if conf.Serve && conf.ArtifactTimeout > 0 {
		store = artifact.NewTimeout(store, conf.ArtifactTimeout, artifactCheckInterval)
	}
	return store
}

func newWorker(conf *config.Config) worker.Worker {
	var observer func(worker.Response)
	if conf.EnableMetrics {
		observer = compileObserve
	}
	return worker.New(worker.Config{
		Parallelism:    conf.Parallelism,
		CompileTimeout: conf.CompileTimeout,
		OutputLimit:    conf.OutputLimit,
		ExecObserver:   observer,
	})
}

type (
	stopFunc func(ctx context.Context) error
	initFunc func() (start func(), cleanUp stopFunc)
)

func cleanUpWorker(work worker.Worker) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		return nil, func(ctx context.Context) error {
			work.Shutdown()
			logger.Info("Worker shutdown")
			return nil
		}
	}
}

func initHTTPServer(conf *config.Config, svc restbuilder.BuildService, store artifact.Store) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		r := initHTTPMux(conf, svc, store)
		srv := http.Server{
			Addr:    conf.HTTPAddr,
			Handler: r,
		}

		return func() {
				lis, err := newListener(conf.HTTPAddr)
				if err != nil {
					logger.Error("Http server listen failed", zap.Error(err))
					return
				}
				logger.Info("Starting http server", zap.String("addr", conf.HTTPAddr), zap.String("listener", printListener(lis)))
				if err := srv.Serve(lis); errors.Is(err, http.ErrServerClosed) {
					logger.Info("Http server stopped", zap.Error(err))
				} else {
					logger.Error("Http server stopped", zap.Error(err))
				}
			}, func(ctx context.Context) error {
				logger.Info("Http server shutting down")
				return srv.Shutdown(ctx)
			}
	}
}

func initMonitorHTTPServer(conf *config.Config) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		mr := initMonitorHTTPMux(conf)
		if mr == nil {
			return nil, nil
		}
		msrv := http.Server{
			Addr:    conf.MonitorAddr,
			Handler: mr,
		}
		return func() {
				lis, err := newListener(conf.MonitorAddr)
				if err != nil {
					logger.Error("Monitoring http listen failed", zap.Error(err))
					return
				}
				logger.Info("Starting monitoring http server", zap.String("addr", conf.MonitorAddr), zap.String("listener", printListener(lis)))
				logger.Info("Monitoring http server stopped", zap.Error(msrv.Serve(lis)))
			}, func(ctx context.Context) error {
				logger.Info("Monitoring http server shutdown")
				return msrv.Shutdown(ctx)
			}
	}
}

func initHTTPMux(conf *config.Config, svc restbuilder.BuildService, store artifact.Store) http.Handler {
	var r *gin.Engine
	if conf.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r = gin.New()
	r.Use(ginzap.Ginzap(logger, "", false))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	// Metrics Handle
	if conf.EnableMetrics {
		initGinMetrics(r)
	}

	// Version handle
	r.GET("/version", handleVersion)

	// Config handle
	r.GET("/config", generateHandleConfig(conf))

	// Add auth token
	if conf.AuthToken != "" {
		r.Use(tokenAuth(conf.AuthToken))
		logger.Info("Attach token auth")
	}

	// Rest Handle
	buildHandle := restbuilder.NewBuildHandle(svc, logger)
	buildHandle.Register(r)
	artifactHandle := restbuilder.NewArtifactHandle(store)
	artifactHandle.Register(r)

	// WebSocket Handle
	wsHandle := wsbuilder.New(svc, logger)
	wsHandle.Register(r)

	return r
}

func initMonitorHTTPMux(conf *config.Config) http.Handler {
	if !conf.EnableMetrics && !conf.EnableDebug {
		return nil
	}
	mux := http.NewServeMux()
	if conf.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if conf.EnableDebug {
		initDebugRoute(mux)
	}
	return mux
}

func initDebugRoute(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func initGinMetrics(r *gin.Engine) {
	p := ginprometheus.NewWithConfig(ginprometheus.Config{
		Subsystem:          "gin",
		DisableBodyReading: true,
	})
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		return c.FullPath()
	}
	r.Use(p.HandlerFunc())
}

func tokenAuth(token string) gin.HandlerFunc {
	const bearer = "Bearer "
	return func(c *gin.Context) {
		reqToken := c.GetHeader("Authorization")
		if strings.HasPrefix(reqToken, bearer) && reqToken[len(bearer):] == token {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"buildVersion": version.Version,
	})
}

func generateHandleConfig(conf *config.Config) func(*gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"srcDir":       conf.SrcDir,
			"buildDir":     conf.BuildDir,
			"outputSuffix": conf.OutputSuffix,
			"parallelism":  conf.Parallelism,
			"legacyMatch":  conf.LegacyMatch,
		})
	}
}

func initLogger(conf *config.Config) {
	if conf.Silent {
		logger = zap.NewNop()
		return
	}

	var err error
	if conf.Release {
		logger, err = zap.NewProduction()
	} else {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !conf.EnableDebug {
			config.Level.SetLevel(zap.InfoLevel)
		}
		logger, err = config.Build()
	}
	if err != nil {
		log.Fatalln("init logger failed ", err)
	}
}

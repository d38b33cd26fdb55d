package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/tripplanner/internal/planner/biz"
	"github.com/kart-io/tripplanner/internal/planner/handler"
	"github.com/kart-io/tripplanner/internal/planner/router"
	"github.com/kart-io/tripplanner/internal/planner/store"
	"github.com/kart-io/tripplanner/internal/search"
	"github.com/kart-io/tripplanner/internal/search/serpapi"
	"github.com/kart-io/tripplanner/pkg/infra/app"
	"github.com/kart-io/tripplanner/pkg/infra/pool"
	"github.com/kart-io/tripplanner/pkg/infra/server"
	"github.com/kart-io/tripplanner/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/tripplanner/pkg/llm/deepseek"
	_ "github.com/kart-io/tripplanner/pkg/llm/ollama"
	_ "github.com/kart-io/tripplanner/pkg/llm/openai"
	"github.com/kart-io/tripplanner/pkg/llm/resilience"
	cacheopts "github.com/kart-io/tripplanner/pkg/options/cache"
	httpopts "github.com/kart-io/tripplanner/pkg/options/http"
	llmopts "github.com/kart-io/tripplanner/pkg/options/llm"
	logopts "github.com/kart-io/tripplanner/pkg/options/logger"
	poolopts "github.com/kart-io/tripplanner/pkg/options/pool"
	redisopts "github.com/kart-io/tripplanner/pkg/options/redis"
	serpapiopts "github.com/kart-io/tripplanner/pkg/options/serpapi"
	storeopts "github.com/kart-io/tripplanner/pkg/options/store"
)

// Name is the name of the application.
const Name = "tripplanner"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions    *httpopts.Options
	LogOptions     *logopts.Options
	LLMOptions     *llmopts.ProviderOptions
	RedisOptions   *redisopts.Options
	SerpAPIOptions *serpapiopts.Options
	StoreOptions   *storeopts.Options
	PoolOptions    *poolopts.Options
	PlannerOptions *Options
}

// Server represents the trip planner server.
type Server struct {
	http   *server.Server
	pool   *pool.Pool
	store  store.JobStore
	redis  *goredis.Client
	wiring *wiring
	cfg    *Config
}

// wiring summarizes what NewServer assembled, for the startup log.
type wiring struct {
	Provider     string
	Tools        []string
	StoreDriver  string
	CacheBackend string
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting trip planner...", "version", app.GetVersion())

	info := &wiring{}

	// 2. 初始化 Redis 客户端（缓存与任务存储共用）
	var redisClient *goredis.Client
	if cfg.needsRedis() {
		client, err := cfg.RedisOptions.NewClient(ctx)
		switch {
		case err == nil:
			redisClient = client
			logger.Infow("Redis client initialized", "addr", cfg.RedisOptions.Addr())
		case cfg.StoreOptions.Driver == storeopts.DriverRedis:
			return nil, fmt.Errorf("failed to connect to redis for job store: %w", err)
		default:
			logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		}
	}
	closeRedis := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	// 3. 初始化 LLM 供应商
	chatProvider, err := llm.NewChatProvider(cfg.LLMOptions.Provider, cfg.LLMOptions.ToConfigMap())
	if err != nil {
		closeRedis()
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	if r := cfg.LLMOptions.Resilience; r != nil && r.Enabled {
		chatProvider = resilience.NewResilientChatProvider(chatProvider, r.RetryConfig(), r.CircuitBreakerConfig())
	}
	info.Provider = chatProvider.Name()
	logger.Infow("Chat provider initialized",
		"provider", cfg.LLMOptions.Provider,
		"model", cfg.LLMOptions.Model,
		"resilience", cfg.LLMOptions.Resilience != nil && cfg.LLMOptions.Resilience.Enabled,
	)

	// 4. 初始化搜索工具
	registry := search.NewRegistry(serpapi.NewClient(cfg.SerpAPIOptions.Config()).Tools()...)
	info.Tools = registry.Names()
	logger.Infow("Search tools registered", "tools", info.Tools)

	// 5. 初始化任务存储
	jobStore, err := store.New(ctx, cfg.StoreOptions, redisClient)
	if err != nil {
		closeRedis()
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}
	info.StoreDriver = cfg.StoreOptions.Driver
	logger.Infow("Job store initialized", "driver", cfg.StoreOptions.Driver)

	// 6. 初始化任务池
	jobPool, err := pool.NewPool("planning-jobs", cfg.PoolOptions.Config())
	if err != nil {
		_ = jobStore.Close()
		closeRedis()
		return nil, fmt.Errorf("failed to initialize job pool: %w", err)
	}

	// 7. 初始化缓存
	opts := cfg.PlannerOptions
	serviceOpts := []biz.ServiceOption{biz.WithJobs(jobPool, jobStore)}
	if cache := cfg.newPlanCache(redisClient); cache != nil {
		serviceOpts = append(serviceOpts, biz.WithCache(cache))
		info.CacheBackend = opts.Cache.Backend
	} else {
		logger.Info("Plan cache is disabled")
	}

	// 8. 初始化 Biz 层
	oracle := biz.NewLLMOracle(chatProvider)
	plannerService := biz.NewPlannerService(
		biz.NewSynthesizer(oracle, opts.SynthesizerConfig()),
		biz.NewExecutor(registry, opts.StepTimeout),
		biz.NewSelector(opts.NightsMode, opts.FixedNights),
		biz.NewComposer(oracle),
		opts.ServiceConfig(),
		serviceOpts...,
	)
	logger.Infow("Planner service initialized",
		"max_date_ranges", opts.MaxDateRanges,
		"nights_mode", opts.NightsMode,
		"fixed_nights", opts.FixedNights,
		"request_timeout", opts.RequestTimeout,
		"cache.enabled", info.CacheBackend != "",
	)

	// 9. 初始化服务器并注册路由
	httpServer := server.NewServer(cfg.HTTPOptions)
	router.Register(httpServer.Engine(), handler.NewPlannerHandler(plannerService))

	logger.Info("Trip planner is ready")
	return &Server{
		http:   httpServer,
		pool:   jobPool,
		store:  jobStore,
		redis:  redisClient,
		wiring: info,
		cfg:    cfg,
	}, nil
}

func (cfg *Config) needsRedis() bool {
	cache := cfg.PlannerOptions.Cache
	return cfg.StoreOptions.Driver == storeopts.DriverRedis ||
		(cache.Enabled && cache.Backend == cacheopts.BackendRedis)
}

// newPlanCache returns nil when caching is off. A redis backend without a
// reachable server disables caching.
func (cfg *Config) newPlanCache(redisClient *goredis.Client) *biz.PlanCache {
	cache := cfg.PlannerOptions.Cache
	if !cache.Enabled {
		return nil
	}
	config := cfg.PlannerOptions.CacheConfig()
	switch cache.Backend {
	case cacheopts.BackendRedis:
		if redisClient == nil {
			return nil
		}
		logger.Infow("Redis plan cache initialized", "ttl", cache.TTL, "prefix", cache.KeyPrefix)
		return biz.NewRedisPlanCache(redisClient, config)
	default:
		logger.Infow("Memory plan cache initialized", "ttl", cache.TTL)
		return biz.NewMemoryPlanCache(config, cache.CleanupInterval)
	}
}

// Run starts the server and blocks until ctx is done or serving fails,
// then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.http.Start(ctx); err != nil {
		s.release()
		return fmt.Errorf("failed to start %s: %w", s.http.Name(), err)
	}
	logger.Infow("HTTP server started",
		"addr", s.http.Addr(),
		"provider", s.wiring.Provider,
		"tools", s.wiring.Tools,
		"store", s.wiring.StoreDriver,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down trip planner...")
	case err := <-s.http.Errors():
		logger.Errorw("HTTP server failed", "error", err.Error())
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPOptions.ShutdownTimeout)
	defer cancel()
	if err := s.http.Stop(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown failed", "error", err.Error())
		runErr = errors.Join(runErr, err)
	}
	s.release()

	logger.Info("Trip planner stopped")
	return runErr
}

func (s *Server) release() {
	if err := s.pool.ReleaseTimeout(s.cfg.PoolOptions.ShutdownTimeout); err != nil {
		logger.Warnw("planning jobs still running at shutdown", "error", err.Error())
	}
	if err := s.store.Close(); err != nil {
		logger.Warnw("failed to close job store", "error", err.Error())
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

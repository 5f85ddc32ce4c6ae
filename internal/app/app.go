package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/config"
	"github.com/hitoshi/tenantnotes/internal/database"
	"github.com/hitoshi/tenantnotes/internal/handler"
	"github.com/hitoshi/tenantnotes/internal/logger"
	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/middleware"
	"github.com/hitoshi/tenantnotes/internal/note"
	"github.com/hitoshi/tenantnotes/internal/repository"
	"github.com/hitoshi/tenantnotes/internal/security"
	"github.com/hitoshi/tenantnotes/internal/seed"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
	"github.com/hitoshi/tenantnotes/internal/tenant"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでログを再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		opts, err := ParseMigrateArgs(args[1:])
		if err != nil {
			return err
		}
		return runMigrate(cfg, opts)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	tenantRepo := repository.NewPostgresTenantRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)
	noteRepo := repository.NewPostgresNoteRepo(db)

	// 3. メトリクスの初期化
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 4. 認証・認可の初期化
	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), auth.WithLeeway(cfg.TokenLeeway))
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	extractor := auth.NewExtractor(codec, slog.Default())
	binder := tenancy.NewBinder(tenantRepo, extractor, tenancy.WithMetrics(collector))
	guard := middleware.NewRouteGuard(middleware.DefaultGuardConfig(), extractor,
		middleware.WithGuardMetrics(collector),
	)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, hasher, codec)
	noteService := note.NewService(noteRepo, security.NewPlainTextSanitizer(), collector)
	tenantService := tenant.NewService(tenantRepo, userRepo, hasher, collector)

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Guard:              guard,
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      db,

		Binder: binder,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure: cfg.CookieSecure,
			TokenMaxAge:  int(auth.TokenTTL.Seconds()),
		},

		NoteService:   noteService,
		TenantService: tenantService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 既定ではすべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config, opts MigrateOptions) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.Bool("down", opts.Down),
	)

	if opts.Down {
		if err := database.RollbackMigrations(cfg.DatabaseURL, opts.Steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	} else if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.SchemaVersion(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runSeed はフィクスチャからテナントとユーザーを投入する。
func runSeed(cfg *config.Config) error {
	fixture, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seeder := seed.NewSeeder(
		repository.NewPostgresTenantRepo(db),
		repository.NewPostgresUserRepo(db),
		auth.NewBcryptHasher(cfg.BcryptCost),
	)
	res, err := seeder.Apply(ctx, fixture)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed",
		slog.Int("tenants", res.Tenants),
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

package djangify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/todiane/djangify/api"
	"github.com/todiane/djangify/auth"
	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/db/sqlite3"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/notifications"
	"github.com/todiane/djangify/portfolio"
	"github.com/todiane/djangify/random"
	"github.com/todiane/djangify/server"
	"github.com/todiane/djangify/spam"
	"golang.org/x/time/rate"
)

type App struct {
	server  *server.Server
	handler *api.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file::memory:?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	userRepo := sqlite3.NewUserRepository(db)
	sessionRepo := sqlite3.NewSessionRepository(db)
	postRepo := sqlite3.NewPostRepository(db)
	categoryRepo := sqlite3.NewCategoryRepository(db)
	tagRepo := sqlite3.NewTagRepository(db)
	commentRepo := sqlite3.NewCommentRepository(db)
	projectRepo := sqlite3.NewProjectRepository(db)
	technologyRepo := sqlite3.NewTechnologyRepository(db)
	projectImageRepo := sqlite3.NewProjectImageRepository(db)

	authSvc := auth.NewService(userRepo, sessionRepo)

	err = authSvc.EnsureAdminUser(
		ctx,
		env.GetString("ADMIN_USERNAME", ""),
		env.GetString("ADMIN_PASSWORD", ""),
		env.GetString("ADMIN_EMAIL", ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin user: %w", err)
	}

	blogSvc := blog.NewService(postRepo, categoryRepo, tagRepo)
	portfolioSvc := portfolio.NewService(projectRepo, technologyRepo, projectImageRepo)

	notifier, err := newNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	moderationSvc := moderation.NewService(commentRepo, blogSvc, spam.NewDetector(), notifier)

	sessionName := env.GetString("SESSION_NAME", "djangify-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	cacheTTL := time.Duration(env.GetInt("CACHE_TTL_SECONDS", 300)) * time.Second
	writeRate := rate.Limit(float64(env.GetInt("WRITE_RATE_PER_MINUTE", 30)) / 60.0)
	writeBurst := env.GetInt("WRITE_RATE_BURST", 10)

	handler := api.NewHandler(
		authSvc,
		blogSvc,
		portfolioSvc,
		moderationSvc,
		cookieStore,
		sessionName,
		env.GetString("MEDIA_ROOT", "./media"),
		cacheTTL,
		writeRate,
		writeBurst,
		api.AdminConfig{
			SiteHeader: env.GetString("SITE_NAME", "Djangify"),
			SiteTitle:  env.GetString("SITE_NAME", "Djangify"),
		},
	)

	app := &App{
		server:  newServer(),
		handler: handler,
		db:      db,
	}

	return app, nil
}

func newNotifier() (*notifications.Notifier, error) {
	var transport notifications.Transport = &notifications.LogTransport{}

	if smtpHost := env.GetString("SMTP_HOST", ""); smtpHost != "" {
		transport = notifications.NewSMTPTransport(
			smtpHost,
			env.GetInt("SMTP_PORT", 587),
			env.GetString("SMTP_USERNAME", ""),
			env.GetString("SMTP_PASSWORD", ""),
		)
	}

	notifier, err := notifications.NewNotifier(
		transport,
		env.GetString("DEFAULT_FROM_EMAIL", "noreply@localhost"),
		env.GetString("ADMIN_EMAIL", ""),
		env.GetString("SITE_NAME", "Djangify"),
		env.GetString("SITE_URL", "http://localhost:"+env.GetString("PORT", server.DefaultPort)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	return notifier, nil
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

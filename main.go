//
// Blog
// ====
// Portfolio blog service. Posts come from a Hashnode publication and are served
// as JSON, as server rendered pages and as an RSS feed.
//
// Pass -routes for the generated route docs: `go run . -routes`
//
// Boot the server:
// ----------------
// $ go run . -config blog.yaml
//
// Client requests:
// ----------------
// $ curl http://localhost:3333/ping
// pong
//
// $ curl http://localhost:3333/posts?limit=2
// [{"id":"...","title":"...","slug":"...","url":"https://pushpendra16.hashnode.dev/...",...}]
//
// $ curl http://localhost:3333/posts/search?tag=aws
//
// $ curl http://localhost:3333/posts/no-such-post
// {"status":"Resource not found."}
//
// $ curl http://localhost:3333/blog/rss.xml
//
// $ curl http://localhost:9999/metrics
//
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric/global"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/cache"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/hashnode"
	"github.com/SergeyParamoshkin/blog/internal/logger"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/page"
	"github.com/SergeyParamoshkin/blog/internal/post"
	"github.com/SergeyParamoshkin/blog/internal/profile"
)

const (
	ServiceName = "blog"

	shutdownTimeout = 10 * time.Second
)

type App struct {
	sugarLogger *zap.SugaredLogger
	config      config.Config
	metrics     *metrics.Client
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sugar, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer sugar.Sync() //nolint:errcheck

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("exit", "error", err)
		_ = sugar.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, sugar *zap.SugaredLogger) error {
	exporter, err := metrics.NewExporter()
	if err != nil {
		return fmt.Errorf("initialize prometheus exporter: %w", err)
	}
	global.SetMeterProvider(exporter.MeterProvider())

	a := &App{
		sugarLogger: sugar,
		config:      cfg,
		metrics:     metrics.New(global.Meter(ServiceName)),
	}

	source, closeSource, err := a.postSource()
	if err != nil {
		return err
	}
	defer closeSource()

	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return err
	}

	r, err := a.router(source, prof)
	if err != nil {
		return err
	}

	// Passing -routes to the program will generate docs for the above
	// router definition.
	if cfg.Routes {
		fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "github.com/SergeyParamoshkin/blog",
			Intro:       "Routes of the blog service.",
		}))

		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, sugar,
		&http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
		&http.Server{Addr: cfg.DiagAddr, Handler: diagRouter(exporter), ReadHeaderTimeout: 5 * time.Second},
	)
}

// postSource builds the Hashnode client, fronted by the list cache unless the
// cache TTL is zero.
func (a *App) postSource() (post.Source, func(), error) {
	cfg := a.config
	noop := func() {}

	client := hashnode.New(
		hashnode.WithEndpoint(cfg.Hashnode.Endpoint),
		hashnode.WithHost(cfg.Hashnode.Host),
		hashnode.WithHTTPClient(&http.Client{Timeout: cfg.Hashnode.Timeout}),
		hashnode.WithLogger(a.sugarLogger.With("component", "hashnode")),
		hashnode.WithMetrics(a.metrics),
	)

	if cfg.Cache.TTL <= 0 {
		a.sugarLogger.Infow("post cache disabled")

		return client, noop, nil
	}

	if cfg.Cache.RedisAddr == "" {
		a.sugarLogger.Infow("post cache in memory", "ttl", cfg.Cache.TTL)

		return cache.NewSource(client, cache.NewMemory(), cfg.Cache.TTL, a.sugarLogger), noop, nil
	}

	rdb, err := cache.Dial(cfg.Cache.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	a.sugarLogger.Infow("post cache in redis", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)

	closeRedis := func() {
		if err := rdb.Close(); err != nil {
			a.sugarLogger.Warnw("close redis", "error", err)
		}
	}

	return cache.NewSource(client, cache.NewRedis(rdb, cache.DefaultPrefix), cfg.Cache.TTL, a.sugarLogger), closeRedis, nil
}

func (a *App) router(source post.Source, prof *profile.Profile) (chi.Router, error) {
	blog, err := page.New(source, page.Options{
		Limit:       a.config.Blog.PageLimit,
		PostBaseURL: a.config.Blog.PostBaseURL,
		Description: prof.Name + " on cloud, servers and automation.",
		MountPath:   "/blog",
		Logger:      a.sugarLogger,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.Logger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(a.metrics.Middleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blog", http.StatusFound)
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Debugw("ping")
		if _, err := w.Write([]byte("pong")); err != nil {
			a.sugarLogger.Errorw(err.Error())
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.URLFormat)
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/posts", post.NewAPI(source, a.config.Blog.PostBaseURL, a.sugarLogger).Routes())
		r.Mount("/profile", profile.NewHandler(prof, a.sugarLogger).Routes())
	})

	r.Mount("/blog", blog.Routes())

	return r, nil
}

func diagRouter(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Logger puts the application logger on the request context.
func (a *App) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := a.sugarLogger
		if id := middleware.GetReqID(r.Context()); id != "" {
			l = l.With("request_id", id)
		}
		next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), l)))
	})
}

// serve runs the servers until ctx is done or one of them fails, then shuts
// all of them down.
func serve(ctx context.Context, sugar *zap.SugaredLogger, servers ...*http.Server) error {
	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			sugar.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			sugar.Warnw("shutdown", "addr", srv.Addr, "error", serr)
		}
	}

	return err
}

// Bare errors given to render.Respond are logged and answered without their
// message.
func init() {
	render.Respond = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		if err, ok := v.(error); ok {
			if _, ok := r.Context().Value(render.StatusCtxKey).(int); !ok {
				w.WriteHeader(http.StatusBadRequest)
			}

			logger.FromContext(r.Context()).Warnw("respond with error", "path", r.URL.Path, "error", err)

			render.DefaultResponder(w, r, render.M{"status": "error"})

			return
		}

		render.DefaultResponder(w, r, v)
	}
}

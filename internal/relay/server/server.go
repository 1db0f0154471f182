package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tweet-relay/internal/twitter"
)

const (
	PostTweetPath = "/post-tweet"
	HealthPath    = "/health"
	MetricsPath   = "/metrics"

	readHeaderTimeout = time.Second * 10

	// drainTimeout is how long cancelled posts get to write their answer
	drainTimeout = time.Second * 2
)

// Options are the settings the service takes from the process config
type Options struct {
	// PostTimeout bounds a single call to the poster. Zero imposes no
	// deadline, the call then lasts as long as the poster blocks.
	PostTimeout time.Duration

	MetricsEnabled bool

	ShutdownTimeout time.Duration
}

// Service is the relay between HTTP callers and the posting client. It holds
// no state shared between requests besides its read only dependencies.
type Service struct {
	logger   *zap.Logger
	poster   twitter.Poster
	opts     Options
	validate *validator.Validate
}

func NewService(logger *zap.Logger, poster twitter.Poster, opts Options) (*Service, error) {
	s := Service{
		logger:   logger,
		poster:   poster,
		opts:     opts,
		validate: validator.New(),
	}

	if err := s.validateDeps(); err != nil {
		return nil, err
	}

	s.logger.Debug("successfully initialized relay service")

	return &s, nil
}

func (s *Service) validateDeps() error {
	var missingDeps []string

	for _, tc := range []struct {
		dep string
		chk func() bool
	}{
		{
			dep: "logger",
			chk: func() bool { return s.logger != nil },
		},
		{
			dep: "poster",
			chk: func() bool { return s.poster != nil },
		},
	} {
		if !tc.chk() {
			missingDeps = append(missingDeps, tc.dep)
		}
	}

	if len(missingDeps) > 0 {
		return fmt.Errorf(
			"unable to initialize service due to (%d) missing dependencies: %s",
			len(missingDeps),
			strings.Join(missingDeps, ","),
		)
	}

	return nil
}

// Handler returns the router serving the relay routes. Posts made through it
// are never cancelled by the service, use Serve for a shutdown aware handler.
func (s *Service) Handler() http.Handler {
	return s.handler(context.Background())
}

// handler builds the router, posts run under the posts context
func (s *Service) handler(posts context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)
	r.Use(requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	r.Post(PostTweetPath, s.postTweet(posts))
	r.Get(HealthPath, s.health)

	if s.opts.MetricsEnabled {
		r.Method(http.MethodGet, MetricsPath, promhttp.Handler())
	}

	return r
}

// ListenAndServe binds addr and serves until ctx is done
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		const msg = "unable to listen"
		s.logger.Error(msg, zap.String("addr", addr), zap.Error(err))
		return fmt.Errorf(msg+": %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts the server down giving
// in flight requests the shutdown timeout to finish. Posts still running
// after that are cancelled so their callers get a failed PostResult, and the
// server gets drainTimeout more to deliver those answers before it is closed.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	posts, cancelPosts := context.WithCancel(context.Background())
	defer cancelPosts()

	srv := &http.Server{
		Handler:           s.handler(posts),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting relay server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		s.logger.Info("shutting down relay server")
		err := s.shutdown(srv, s.shutdownTimeout())
		if err == nil {
			return nil
		}
		s.logger.Warn("requests outlasted the shutdown timeout, cancelling in flight posts", zap.Error(err))

		cancelPosts()
		if err := s.shutdown(srv, drainTimeout); err != nil {
			s.logger.Warn("unable to drain requests, closing server", zap.Error(err))
			_ = srv.Close()
		}

		return nil
	})

	return g.Wait()
}

func (s *Service) shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return srv.Shutdown(ctx)
}

func (s *Service) shutdownTimeout() time.Duration {
	if s.opts.ShutdownTimeout <= 0 {
		return time.Second * 5
	}

	return s.opts.ShutdownTimeout
}

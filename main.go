package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tweet-relay/internal/config"
	"tweet-relay/internal/logging"
	"tweet-relay/internal/relay"
	"tweet-relay/internal/relay/server"
	"tweet-relay/internal/twitter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	root := &cobra.Command{
		Use:           "tweet-relay",
		Short:         "HTTP relay that posts tweets on behalf of its callers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serveCmd.RunE,
	}
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd, newPostCmd())

	return root
}

func newServeCmd() *cobra.Command {
	var (
		addr     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the post tweet and health routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var overrides []config.Override
			if addr != "" {
				overrides = append(overrides, func(c *config.Config) { c.Addr = addr })
			}
			if logLevel != "" {
				overrides = append(overrides, func(c *config.Config) { c.LogLevel = logLevel })
			}

			return serve(cmd.Context(), overrides...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides RELAY_ADDR")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level, overrides RELAY_LOG_LEVEL")

	return cmd
}

func newPostCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a single tweet with the configured credentials and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postOnce(cmd.Context(), cmd.OutOrStdout(), text)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "tweet content")

	return cmd
}

func serve(ctx context.Context, overrides ...config.Override) error {
	cfg, err := config.Load(overrides...)
	if err != nil {
		return fmt.Errorf("unable to get config: %w", err)
	}

	logger, closeLog, err := getLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	poster, err := getPoster(logger, cfg)
	if err != nil {
		return err
	}

	svc, err := server.NewService(logger, poster, server.Options{
		PostTimeout:     cfg.PostTimeout,
		MetricsEnabled:  cfg.MetricsEnabled,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// handle interrupts
	g.Go(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(c)

		select {
		case <-gctx.Done():
		case sig := <-c:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		}

		return nil
	})

	g.Go(func() error {
		defer cancel()
		return svc.ListenAndServe(gctx, cfg.Addr)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relay server stopped", zap.Error(err))
		return err
	}

	return nil
}

func postOnce(ctx context.Context, out io.Writer, text string) error {
	if text == "" {
		return relay.ErrNoTweetContent
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("unable to get config: %w", err)
	}

	logger, closeLog, err := getLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	poster, err := getPoster(logger, cfg)
	if err != nil {
		return err
	}

	if cfg.PostTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.PostTimeout)
		defer cancel()
	}

	logger.Info("posting tweet", zap.String("preview", relay.Preview(text)))
	post, postErr := poster.CreatePost(ctx, text)

	var res relay.PostResult
	if postErr != nil {
		res = relay.Failed(postErr)
	} else {
		res = relay.Succeeded(post.ID)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}

	return postErr
}

func getLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, closeFile, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		Dir:   cfg.LogDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to initialize logger: %w", err)
	}

	return logger, func() {
		_ = logger.Sync()
		_ = closeFile()
	}, nil
}

func getPoster(logger *zap.Logger, cfg *config.Config) (twitter.Poster, error) {
	opts := []twitter.Option{
		twitter.WithBaseURL(cfg.APIURL),
		twitter.WithRateLimitWait(cfg.WaitOnRateLimit, cfg.RateLimitMaxWait),
	}

	var (
		poster twitter.Poster
		err    error
	)
	switch cfg.APIVersion {
	case config.APIv1:
		poster, err = twitter.NewLegacyClient(logger, cfg.TwitterCredentials(), opts...)
	default:
		poster, err = twitter.NewClient(logger, cfg.TwitterCredentials(), opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to initialize twitter client: %w", err)
	}

	logger.Debug("initialized twitter client", zap.String("apiVersion", cfg.APIVersion))

	return poster, nil
}

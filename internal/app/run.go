package app

import (
	"context"
	"errors"
	"os"

	"github.com/velic0/game-telemetry/internal/config"
	"github.com/velic0/game-telemetry/internal/deadletter"
	"github.com/velic0/game-telemetry/internal/dispatch"
	"github.com/velic0/game-telemetry/internal/httpserver"
	"github.com/velic0/game-telemetry/internal/jsonlog"
	"github.com/velic0/game-telemetry/internal/metrics"
	"github.com/velic0/game-telemetry/internal/sink"
)

func Run(version, buildTime string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := jsonlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := jsonlog.New(os.Stdout, level)

	deliverySink, closeSink, err := buildSink(cfg.Sink, logger)
	if err != nil {
		return err
	}

	met := metrics.New(nil)

	// Dead-letter capture exists no matter which sink variant is active.
	dead := deadletter.New(cfg.Dispatch.DeadLetterCap)

	dispatcher := dispatch.New(deliverySink, dead, logger, met, dispatch.Config{
		QueueSize: cfg.Dispatch.QueueSize,
	})
	dispatcher.Start()

	handler := httpserver.BuildHandler(httpserver.Config{
		APIKey:         cfg.Auth.APIKey,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, logger, dispatcher, deliverySink, met)

	logger.Info("service started", jsonlog.Fields{
		"version":    version,
		"build_time": buildTime,
		"sink_mode":  cfg.Sink.Mode,
	})

	return httpserver.Serve(httpserver.ServeConfig{
		Port:           cfg.HTTP.Port,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	}, logger, handler, func(ctx context.Context) error {
		stopErr := dispatcher.Stop(ctx)
		if closeSink != nil {
			if err := closeSink(); err != nil {
				logger.Error(err, jsonlog.Fields{"component": "sink_close"})
			}
		}
		if stopErr != nil && !errors.Is(stopErr, context.Canceled) && !errors.Is(stopErr, context.DeadlineExceeded) {
			return stopErr
		}
		return nil
	})
}

// buildSink constructs the configured sink variant. Failure to build the
// durable variant is an explicit startup error unless the operator opted
// into the in-memory fallback, in which case the substitution is logged
// and the service runs non-durably.
func buildSink(cfg config.SinkConfig, logger *jsonlog.Logger) (sink.Sink, func() error, error) {
	if cfg.Mode == "memory" {
		return sink.NewMemory(), nil, nil
	}

	kafkaSink, err := sink.NewKafka(sink.KafkaConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})
	if err != nil {
		if !cfg.FallbackMemory {
			return nil, nil, err
		}
		logger.Error(err, jsonlog.Fields{
			"component": "sink",
			"fallback":  "memory",
		})
		return sink.NewMemory(), nil, nil
	}

	s := sink.WithRetry(kafkaSink, sink.RetryConfig{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	})
	return s, kafkaSink.Close, nil
}

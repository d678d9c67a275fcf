// Package natsconn opens NATS connections with a bounded reconnect policy
// and connection state logged through zap.
package natsconn

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
)

const (
	defaultReconnectWait = 2 * time.Second
	defaultTimeout       = 2 * time.Second
)

type Options struct {
	URL           string
	Name          string // client name shown in server monitoring
	MaxReconnects int    // negative means retry forever
	ReconnectWait time.Duration
	Timeout       time.Duration // initial dial timeout
	Logger        *zap.Logger
}

// FromConfig maps the NATS section of the service config.
func FromConfig(c config.NATSConfig, name string, log *zap.Logger) Options {
	return Options{
		URL:           c.URL,
		Name:          name,
		MaxReconnects: c.MaxReconnects,
		ReconnectWait: c.ReconnectWait,
		Logger:        log,
	}
}

// Connect dials once and fails fast; reconnects apply only after the
// first successful connection.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("nats connect: empty url")
	}
	nc, err := nats.Connect(opts.URL, opts.natsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d): %w", opts.URL, opts.MaxReconnects, err)
	}
	return nc, nil
}

func (o Options) natsOptions() []nats.Option {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	wait := o.ReconnectWait
	if wait <= 0 {
		wait = defaultReconnectWait
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return []nats.Option{
		nats.Name(o.Name),
		nats.Timeout(timeout),
		nats.MaxReconnects(o.MaxReconnects),
		nats.ReconnectWait(wait),
		nats.RetryOnFailedConnect(false),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Debug("nats connection closed")
		}),
	}
}

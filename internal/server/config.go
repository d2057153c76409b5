package server

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Option interface {
	apply(*config)
}

type optionFunc func(c *config)

func (f optionFunc) apply(c *config) { f(c) }

// config defines fields used for configuring a Server instance.
// jsonHandlers are the POST-JSON RPC endpoints and get the full middleware
// stack; rawHandlers (websocket subscribe, file upload/download) only get
// request logging.
type config struct {
	httpServer    *http.Server
	jsonHandlers  map[string]http.Handler
	rawHandlers   map[string]http.Handler
	afterShutdown []func()
}

// EnvConfig defines fields parseable from environment variables.
type EnvConfig struct {
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	Port        uint16 `env:"PORT" envDefault:"9000"`
	MeetBaseURL string `env:"MEET_BASE_URL" envDefault:"https://meet.google.com/"`
}

// WithEnvConfig applies a parsed EnvConfig to the underlying http.Server.
func WithEnvConfig(cfg EnvConfig) Option {
	return optionFunc(func(c *config) {
		c.httpServer.Addr = cfg.Host + ":" + strconv.FormatUint(uint64(cfg.Port), 10)
	})
}

// ReadTimeout sets the read timeout for the http.Server.
func ReadTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) {
		c.httpServer.ReadTimeout = d
	})
}

// TimeoutHandler wraps each JSON handler in http.TimeoutHandler with the
// provided duration and message.
func TimeoutHandler(d time.Duration, msg string) Option {
	return optionFunc(func(c *config) {
		for pattern, h := range c.jsonHandlers {
			c.jsonHandlers[pattern] = http.TimeoutHandler(h, d, msg)
		}
	})
}

// RegisterAfterShutdown registers a function to call after http.Server
// shutdown. Functions run in registration order, not in separate goroutines.
func RegisterAfterShutdown(f func()) Option {
	return optionFunc(func(c *config) {
		c.afterShutdown = append(c.afterShutdown, f)
	})
}

// applyEnforcePostJson wraps each JSON handler with the enforcePostJson
// middleware.
func applyEnforcePostJson() Option {
	return optionFunc(func(c *config) {
		for pattern, h := range c.jsonHandlers {
			c.jsonHandlers[pattern] = enforcePostJson(h)
		}
	})
}

// applyLog wraps every handler with the log middleware.
func applyLog(logger *zap.Logger) Option {
	return optionFunc(func(c *config) {
		for pattern, h := range c.jsonHandlers {
			c.jsonHandlers[pattern] = log(h, logger)
		}
		for pattern, h := range c.rawHandlers {
			c.rawHandlers[pattern] = log(h, logger)
		}
	})
}

// registerHandlers builds the http.ServeMux out of both handler maps and
// installs it on the http.Server.
func registerHandlers() Option {
	return optionFunc(func(c *config) {
		mux := http.NewServeMux()
		for pattern, h := range c.jsonHandlers {
			mux.Handle(pattern, h)
		}
		for pattern, h := range c.rawHandlers {
			mux.Handle(pattern, h)
		}
		c.httpServer.Handler = mux
	})
}

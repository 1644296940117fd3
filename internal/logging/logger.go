// Package logging configures the process-wide zerolog logger and the HTTP
// access log.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global logger. Development gets a console writer, every
// other environment JSON lines on stdout.
func Init(serviceName, env string) {
	log.Logger = New(os.Stdout, serviceName, env)
}

// New builds a logger writing to w.
func New(w io.Writer, serviceName, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// RequestLogger writes one access line per request through logger.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = logger.Error().Err(v.Error)
			}
			ev.Str("component", "http").
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestServeCommandFlags(t *testing.T) {
	serveFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Value:   ":8080",
				EnvVars: []string{"PARLANCE_LISTEN"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Required: true,
				EnvVars:  []string{"PARLANCE_DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"PARLANCE_AI_HOST"},
			},
		}
	}

	app := &cli.App{
		Name: "parlance",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Flags: serveFlags(),
				Action: func(c *cli.Context) error {
					return nil
				},
			},
		},
	}

	t.Run("database-url is required", func(t *testing.T) {
		err := app.Run([]string{"parlance", "serve"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database-url")
	})

	t.Run("listen has a default", func(t *testing.T) {
		cmd := app.Commands[0]
		var listenFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "listen" {
				listenFlag = f
				break
			}
		}
		require.NotNil(t, listenFlag)
		assert.Equal(t, ":8080", listenFlag.Value)
	})

	t.Run("ai-host defaults to a local service", func(t *testing.T) {
		cmd := app.Commands[0]
		var hostFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "ai-host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "chatty"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "chatty")
	})
}

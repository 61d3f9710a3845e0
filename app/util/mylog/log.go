package mylog

import (
	"context"
	"docsmith/app/config"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

// Init replaces the preinit logger with the configured routing. Every
// record carries a short run id, so output of overlapping runs stays
// attributable.
func Init(cfg *config.Config) error {
	consoleLevel := slog.LevelInfo
	if cfg.Log.Verbose {
		consoleLevel = slog.LevelDebug
	}

	router := slogmulti.Router()

	router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     consoleLevel,
	}))

	if cfg.Log.Telegram.Token != "" {
		// telegram only sees errors and records explicitly marked for
		// notification, everything else stays local
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),

			func(_ context.Context, r slog.Record) bool {
				notify := false

				r.Attrs(func(attr slog.Attr) bool {
					if attr.Key == "notify" {
						notify = true
						return false
					}

					return true
				})

				return r.Level >= slog.LevelError || notify
			},
		)
	}

	runID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	slog.SetDefault(slog.New(router.Handler()).With("run", runID))

	return nil
}

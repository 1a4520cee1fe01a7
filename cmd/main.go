package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	flag "github.com/spf13/pflag"

	"github.com/fukuta0614/holdem-room/application"
	"github.com/fukuta0614/holdem-room/network"
)

func main() {
	listen := flag.String("listen", ":8080", "address to serve websocket connections on")
	smallBlind := flag.Int("small-blind", 10, "small blind in chips")
	bigBlind := flag.Int("big-blind", 20, "big blind in chips")
	buyIn := flag.Int("buy-in", 1000, "starting stack in chips")
	seatCap := flag.Int("seats", 9, "maximum players per room")
	turnTimeout := flag.Duration("turn-timeout", 60*time.Second, "time a player has to act")
	turnWarning := flag.Duration("turn-warning", 10*time.Second, "remaining time at which timer ticks warn")
	gracePeriod := flag.Duration("grace-period", 120*time.Second, "reconnect window after a disconnect")
	nextHandDelay := flag.Duration("next-hand-delay", 3*time.Second, "pause between hands")
	flag.Parse()

	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)

	// Create a new slog logger with the handler
	logger := slog.New(handler)

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("H", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("oldem ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("R", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("oom", pterm.FgDarkGray.ToStyle()),
	).Render()

	cfg := application.Config{
		SmallBlind:    *smallBlind,
		BigBlind:      *bigBlind,
		BuyIn:         *buyIn,
		SeatCap:       *seatCap,
		TurnTimeout:   *turnTimeout,
		TurnWarning:   *turnWarning,
		GracePeriod:   *gracePeriod,
		NextHandDelay: *nextHandDelay,
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= cfg.SmallBlind || cfg.BuyIn < cfg.BigBlind {
		logger.Error("invalid blind structure", "smallBlind", cfg.SmallBlind, "bigBlind", cfg.BigBlind, "buyIn", cfg.BuyIn)
		os.Exit(1)
	}

	sessions := application.NewSessionRegistry(cfg.GracePeriod)
	orch := application.NewOrchestrator(cfg, logger,
		application.NewRoomStore(),
		application.NewTurnTimers(cfg.TurnWarning),
		sessions)
	gateway := network.NewGateway(logger, orch)

	sessions.Start(cfg.GracePeriod / 4)
	defer sessions.Stop()

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)

	pterm.Info.Printfln("Serving tables on %s", *listen)
	logger.Info("server listening", "addr", *listen, "smallBlind", cfg.SmallBlind, "bigBlind", cfg.BigBlind)

	if err := http.ListenAndServe(*listen, mux); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

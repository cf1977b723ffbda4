package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mathledger/mathledger/app/services/node/handlers"
	"github.com/mathledger/mathledger/foundation/events"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/genesis"
	"github.com/mathledger/mathledger/foundation/ledger/state"
	"github.com/mathledger/mathledger/foundation/ledger/worker"
	"github.com/mathledger/mathledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in
// the makefile.
var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		Ledger struct {
			GenesisPath   string        `conf:"default:zledger/genesis.json"`
			BlockDBPath   string        `conf:"default:zledger/blocks.db"`
			KeyPath       string        `conf:"default:zledger/node.ecdsa"`
			AuditInterval time.Duration `conf:"default:1m"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	gen, err := genesis.Load(cfg.Ledger.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	// The node key signs locally produced work and identifies the miner.
	privateKey, err := crypto.LoadECDSA(cfg.Ledger.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	minerID := crypto.PubkeyToAddress(privateKey.PublicKey).String()

	serializer, err := database.NewSQLite(cfg.Ledger.BlockDBPath)
	if err != nil {
		return fmt.Errorf("unable to open block storage: %w", err)
	}

	storage, err := database.New(serializer)
	if err != nil {
		return fmt.Errorf("unable to construct storage: %w", err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client connected through the events package.
	evts := events.New()
	defer evts.Shutdown()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		MinerID:   minerID,
		Genesis:   gen,
		Storage:   storage,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker implements the block assembly and audit backfill
	// workflows. The worker registers itself with the state.
	worker.Run(st, ev, worker.WithAuditInterval(cfg.Ledger.AuditInterval))

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing private API support")

	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NodeKey:  privateKey,
	})

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public server gracefully: %w", err)
		}

		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private server gracefully: %w", err)
		}
	}

	return nil
}

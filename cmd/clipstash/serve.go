package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/appinfo"
	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/clock"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/persist"
	"go.klb.dev/clipstash/internal/repo"
	"go.klb.dev/clipstash/internal/wire"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipstash daemon: watches the system clipboard, records
distinct copies into the history, and persists them to a local SQLite
database. Collaborators (the CLI sub-commands, a menu-bar UI) talk to it
over the local socket.

Config file search order:
  /etc/clipstash/clipstash.toml
  $HOME/.config/clipstash/clipstash.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSTASH_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	f := cmd.Flags()
	f.Int("max-items", 200, "maximum number of unpinned history entries")
	f.Int("max-pinned", 20, "maximum number of pinned entries")
	f.Bool("autoclear", false, "wipe unpinned history and the clipboard after a quiet period")
	f.Duration("autoclear-interval", 30*time.Minute, "quiet period before auto-clear fires")
	f.Duration("debounce", 500*time.Millisecond, "delay used to coalesce history writes into one batched save")
	f.Duration("poll-interval", 250*time.Millisecond, "clipboard change-counter poll interval")
	f.String("database", defaultDatabaseDir(), "directory holding the history database")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(v *viper.Viper) error {
	setupLogging(v)

	maxItems := v.GetInt("max-items")
	maxPinned := v.GetInt("max-pinned")
	if maxItems < 1 || maxPinned < 1 {
		return fmt.Errorf("max-items and max-pinned must be at least 1")
	}

	repository, err := repo.OpenSQLite(v.GetString("database"))
	if err != nil {
		return err
	}
	defer repository.Close()

	cfg := engine.Config{
		MaxItems:          maxItems,
		MaxPinned:         maxPinned,
		AutoClearEnabled:  v.GetBool("autoclear"),
		AutoClearInterval: v.GetDuration("autoclear-interval"),
	}

	clk := clock.System{}
	coord := persist.New(repository, clk, v.GetDuration("debounce"), maxItems, maxPinned)
	backend := clip.New()
	defer backend.Close()

	eng := engine.New(cfg, backend, appinfo.New(), coord, clk)
	mon := monitor.New(backend, eng, clk, v.GetDuration("poll-interval"))
	eng.SetAbsorber(mon)

	slog.Info("clipstash daemon starting",
		"version", Version,
		"backend", backend.Name(),
		"max_items", maxItems,
		"max_pinned", maxPinned,
		"autoclear", cfg.AutoClearEnabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The repository is an externality: a failed load starts an empty
	// history but never kills the daemon.
	if err := eng.Load(ctx); err != nil {
		slog.Error("initial load failed, starting with in-memory history only", "err", err)
	}

	mon.Start()

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("ipc listen: %w", err)
	}
	slog.Info("ipc socket listening", "path", ipc.SocketPath())
	go serveIPC(ln, eng, backend, cfg)

	<-ctx.Done()
	slog.Info("shutting down")

	mon.Stop()
	eng.Stop()
	_ = ln.Close()
	if err := coord.Flush(context.Background()); err != nil {
		slog.Error("final flush failed", "err", err)
	}
	return nil
}

func serveIPC(ln net.Listener, eng *engine.Engine, backend clip.Backend, cfg engine.Config) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleIPCConn(conn, eng, backend, cfg)
	}
}

// handleIPCConn serves one request/reply exchange per connection.
func handleIPCConn(conn net.Conn, eng *engine.Engine, backend clip.Backend, cfg engine.Config) {
	defer conn.Close()
	wc := wire.New(conn)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}
	reply := dispatch(msg, eng, backend, cfg)
	if err := wc.WriteMsg(reply); err != nil {
		slog.Debug("ipc reply failed", "err", err)
	}
}

func dispatch(msg *message.Message, eng *engine.Engine, backend clip.Backend, cfg engine.Config) *message.Message {
	switch msg.Type {
	case message.TypeSubmit:
		if err := eng.Copy(msg.Content, msg.FromEditor); err != nil {
			return message.Err(err)
		}
		return message.OK()

	case message.TypeRecopy:
		id, err := resolveID(eng, msg.ID)
		if err != nil {
			return message.Err(err)
		}
		if err := eng.Recopy(id); err != nil {
			return message.Err(err)
		}
		return message.OK()

	case message.TypeList:
		entries := eng.Snapshot()
		if msg.Limit > 0 && len(entries) > msg.Limit {
			entries = entries[:msg.Limit]
		}
		return &message.Message{Type: message.TypeResult, Entries: entries}

	case message.TypePin:
		id, err := resolveID(eng, msg.ID)
		if err != nil {
			return message.Err(err)
		}
		pinned, ok := eng.TogglePin(id)
		if !ok {
			return message.Err(fmt.Errorf("pin limit reached (%d)", cfg.MaxPinned))
		}
		return &message.Message{Type: message.TypeResult, Pinned: pinned}

	case message.TypeDelete:
		id, err := resolveID(eng, msg.ID)
		if err != nil {
			return message.Err(err)
		}
		if err := eng.Delete(id); err != nil {
			return message.Err(err)
		}
		return message.OK()

	case message.TypeClear:
		eng.Clear(msg.KeepPinned, msg.WipeClipboard)
		return message.OK()

	case message.TypeSearch:
		return &message.Message{Type: message.TypeResult, Entries: eng.Search(msg.Query)}

	case message.TypeStatus:
		total, pinned := eng.Counts()
		return &message.Message{Type: message.TypeResult, Status: &message.StatusInfo{
			Version:   Version,
			Backend:   backend.Name(),
			Total:     total,
			Pinned:    pinned,
			MaxItems:  cfg.MaxItems,
			MaxPinned: cfg.MaxPinned,
		}}

	default:
		return message.Err(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// resolveID accepts a full entry id or a unique prefix of one, as printed by
// "clipstash list".
func resolveID(eng *engine.Engine, id string) (string, error) {
	if id == "" {
		return "", errors.New("missing entry id")
	}
	var match string
	for _, e := range eng.Snapshot() {
		if e.ID == id {
			return id, nil
		}
		if strings.HasPrefix(e.ID, id) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id prefix %q", id)
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no entry matches %q", id)
	}
	return match, nil
}

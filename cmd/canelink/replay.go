package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/btouchard/canelink/internal/notify"
	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
)

type replayOptions struct {
	device   string
	jsonPath string
	dbPath   string
}

type replaySummary struct {
	Readings int                `json:"readings"`
	Stats    transport.Stats    `json:"stats"`
	Latest   telemetry.Snapshot `json:"latest"`
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	device := fs.String("device", transport.DefaultDeviceName, "device name to advertise")
	jsonPath := fs.String("json", "", "write the parsed readings as JSON to this file")
	dbPath := fs.String("db", "", "record replayed messages in this SQLite database")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = fs.Parse(args) // ExitOnError handles errors

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: canelink replay [flags] <serial-log|->\n")
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*level)})))

	in := io.Reader(os.Stdin)
	if path := fs.Arg(0); path != "-" {
		f, err := os.Open(path) //nolint:gosec // path is an operator-supplied CLI argument
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening log: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	summary, err := replay(in, replayOptions{device: *device, jsonPath: *jsonPath, dbPath: *dbPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

// replay parses a serial capture and sends every reading through a manager
// linked to a loopback peer.
func replay(in io.Reader, opts replayOptions) (*replaySummary, error) {
	readings, err := telemetry.ParseLog(in)
	if err != nil {
		return nil, err
	}

	if opts.jsonPath != "" {
		if err := writeReadings(opts.jsonPath, readings); err != nil {
			return nil, err
		}
	}

	mt := transport.NewMemoryTransport()
	manager := transport.NewManager(mt, notify.NewHub())

	if _, err := manager.Attach(notify.NewMobileAppListener(slog.Default())); err != nil {
		return nil, err
	}
	tracker := telemetry.NewTracker()
	if _, err := manager.Attach(tracker); err != nil {
		return nil, err
	}

	if opts.dbPath != "" {
		db, err := store.NewSQLiteStore(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		if _, err := manager.Attach(store.NewHistoryListener(db, opts.device)); err != nil {
			return nil, err
		}
	}

	if err := manager.Begin(opts.device); err != nil {
		return nil, err
	}
	mt.Connect()

	for _, r := range readings {
		if err := manager.SendData(telemetry.Format(r)); err != nil {
			return nil, err
		}
	}

	return &replaySummary{
		Readings: len(readings),
		Stats:    manager.Stats(),
		Latest:   tracker.Latest(),
	}, nil
}

func writeReadings(path string, readings []telemetry.Reading) error {
	if readings == nil {
		readings = []telemetry.Reading{}
	}
	data, err := json.MarshalIndent(readings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding readings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // export is meant to be readable
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Command behovsakkumulator runs the behov/løsning accumulator and provides
// operator subcommands for inspecting and searching its state.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serverrun "github.com/navikt/behovsakkumulator/internal/cmd/server"
	cfgpkg "github.com/navikt/behovsakkumulator/internal/config"
	"github.com/navikt/behovsakkumulator/internal/query"
	"github.com/navikt/behovsakkumulator/internal/runtime"
	pebblestore "github.com/navikt/behovsakkumulator/internal/storage/pebble"
	logpkg "github.com/navikt/behovsakkumulator/pkg/log"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	level := os.Getenv("BEHOV_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "behovsakkumulator",
		Short: "behovsakkumulator runtime CLI",
		Long:  "behovsakkumulator accumulates @behov/@løsning records into completed needs. This CLI runs the server and inspects its state.",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newCompactCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the accumulator and its admin HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			namespace, _ := cmd.Flags().GetString("namespace")
			topic, _ := cmd.Flags().GetString("topic")
			group, _ := cmd.Flags().GetString("group")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := cfgpkg.Default()
			cfgpkg.FromEnv(&cfg)
			if topic != "" {
				cfg.SpleisBehovtopic = topic
			}

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:   dataDir,
				HTTPAddr:  httpAddr,
				Fsync:     mode,
				Config:    cfg,
				Namespace: namespace,
				Topic:     cfg.SpleisBehovtopic,
				Group:     group,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory (defaults to an OS-specific application data directory)")
	cmd.Flags().String("http", ":8080", "Admin HTTP listen address")
	cmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	cmd.Flags().String("namespace", "default", "Namespace holding the shared behov/løsning topic")
	cmd.Flags().String("topic", "", "Shared behov/løsning topic name (overrides spleisBehovtopic config)")
	cmd.Flags().String("group", "behovsakkumulator", "Consumer group name the accumulator commits under")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var namespace, topic string
	cmd := &cobra.Command{
		Use:   "inspect <id>",
		Short: "Print the current NeedState for one @id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			rt, err := openReadOnlyRuntime(dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := rt.OpenBus(namespace, topic, nil)
			store := rt.OpenStateStore(namespace, topic)
			for p := 0; p < b.Partitions(); p++ {
				if err := store.Restore(context.Background(), uint32(p)); err != nil {
					return err
				}
			}
			insp := query.NewInspector(b, store)
			state, err := insp.Inspect(args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "Namespace holding the shared behov/løsning topic")
	cmd.Flags().StringVar(&topic, "topic", "behov", "Shared behov/løsning topic name")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var namespace, topic string
	cmd := &cobra.Command{
		Use:   "search <cel-expression>",
		Short: "Replay the shared topic and print records matching a CEL expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			rt, err := openReadOnlyRuntime(dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := rt.OpenBus(namespace, topic, nil)
			filter, err := query.NewFilter(args[0])
			if err != nil {
				return fmt.Errorf("invalid filter: %w", err)
			}
			matches, err := query.Search(b, filter)
			if err != nil {
				return err
			}
			for _, m := range matches {
				out, err := json.Marshal(m.Record)
				if err != nil {
					continue
				}
				fmt.Printf("partition=%d sequence=%d %s\n", m.Partition, m.Sequence, out)
			}
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "Namespace holding the shared behov/løsning topic")
	cmd.Flags().StringVar(&topic, "topic", "behov", "Shared behov/løsning topic name")
	return cmd
}

func newCompactCmd() *cobra.Command {
	var namespace, topic string
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Trim changelog entries older than --older-than and reclaim their storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			olderThan, _ := cmd.Flags().GetDuration("older-than")

			rt, err := openReadOnlyRuntime(dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := rt.OpenBus(namespace, topic, nil)
			store := rt.OpenStateStore(namespace, topic)
			cutoff := time.Now().Add(-olderThan).UnixMilli()

			var total int
			for p := 0; p < b.Partitions(); p++ {
				deleted, err := store.CompactChangelog(context.Background(), uint32(p), cutoff)
				if err != nil {
					return fmt.Errorf("compact partition %d: %w", p, err)
				}
				total += deleted
			}
			fmt.Printf("compacted %d changelog entries older than %s\n", total, olderThan)
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Data directory")
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "Trim changelog entries older than this duration")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "Namespace holding the shared behov/løsning topic")
	cmd.Flags().StringVar(&topic, "topic", "behov", "Shared behov/løsning topic name")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the behovsakkumulator version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func openReadOnlyRuntime(dataDir string) (*runtime.Runtime, error) {
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	return runtime.Open(runtime.Options{
		DataDir: dataDir,
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
}

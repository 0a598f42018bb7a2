package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/orderdesk/internal/app"
	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/database"
	"github.com/Additional-Code/orderdesk/internal/logger"
	"github.com/Additional-Code/orderdesk/internal/migration"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
	"github.com/Additional-Code/orderdesk/internal/seeder"
)

// NewRootCommand builds the root orderdesk CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "orderdesk",
		Short: "Work order service and tooling",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the orderdesk CLI until it finishes or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations or indexes for the configured store",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Tooling, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Tooling, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Tooling, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				version, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Tooling, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				inserted, err := seed.WorkOrders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d work orders\n", inserted)
				return nil
			})
		},
	}
}

func newInspectCmd() *cobra.Command {
	var (
		dbName     string
		collection string
		limit      int
		output     string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect <uri> <username> <password>",
		Short: "List the most recent work orders in a document store",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.Build(config.Observability{LogLevel: "warn", LogEncoding: "console"})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			conn, err := database.Open(ctx, &database.ConnectionOptions{
				URI:                    args[0],
				Username:               args[1],
				Password:               args[2],
				Database:               dbName,
				Collection:             collection,
				ConnectTimeout:         timeout,
				ServerSelectionTimeout: timeout,
			}, log)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close(context.Background()) }()

			records, err := repo.NewMongoStore(conn.Collection(), limit, log).List(ctx)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), records, output)
		},
	}

	cmd.Flags().StringVar(&dbName, "database", "finfabrik", "Database holding the work order collection")
	cmd.Flags().StringVar(&collection, "collection", "workOrder", "Work order collection")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of orders to list")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connect and query timeout")

	return cmd
}

func printRecords(w io.Writer, records []repo.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		orders := make([]any, 0, len(records))
		for _, rec := range records {
			if rec.Order != nil {
				orders = append(orders, rec.Order)
			}
		}
		return enc.Encode(orders)
	case "table", "":
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER ID\tSIZE\tFILLED\tSTATUS\tTICKER\tMIC\tACTION\tTIMESTAMP\tLAST MODIFIED\tISSUES")
	for _, rec := range records {
		if rec.Err != nil || rec.Order == nil {
			fmt.Fprintf(tw, "?\t\t\t\t\t\t\t\t\t%v\n", rec.Err)
			continue
		}
		o := rec.Order
		issues := ""
		for i, issue := range rec.Issues {
			if i > 0 {
				issues += ","
			}
			issues += issue.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.OrderID, o.Size, o.Filled, o.Status, o.Ticker, o.MIC, o.Action,
			o.Timestamp.Format(time.RFC3339Nano), o.LastModified.Format(time.RFC3339Nano), issues)
	}
	return tw.Flush()
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-application.Done():
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}

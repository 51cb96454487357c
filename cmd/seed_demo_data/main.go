package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/database"
	"go-dashboard/internal/features/board"
	"go-dashboard/internal/features/canvas"
	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/realtime"
	"go-dashboard/internal/features/widget"
	"go-dashboard/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const seedWriter = "seed"

var ErrDashboardExists = errors.New("dashboard already exists")

// demoLayout is placed with the quick-add search, in this order.
var demoLayout = []widget.Type{
	widget.TypeText,
	widget.TypeWeather,
	widget.TypeChart,
	widget.TypeRating,
	widget.TypeTable,
	widget.TypeButton,
	widget.TypeCalendar,
}

type seedOptions struct {
	userID string
	email  string
	theme  string
	force  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed_demo_data",
		Short: "Write a demo dashboard into the configured store",
		Long: `Writes a dashboard with a sample widget layout into the store selected by
STORE_DRIVER (mongo or firestore). Without --user the shared demo dashboard
is seeded; with --user the dashboard of that user is.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.userID, "user", "u", "", "seed the dashboard of this user id")
	cmd.Flags().StringVar(&opts.email, "email", "", "owner email stored with a user dashboard")
	cmd.Flags().StringVar(&opts.theme, "theme", string(board.ThemeLight), "theme of the seeded dashboard (light or dark)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing dashboard")
	return cmd
}

func run(ctx context.Context, opts seedOptions) error {
	var (
		cfg  *config.Config
		repo document.Repository
		log  *zap.Logger
	)
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewFirestore,
			document.NewRepository,
		),
		fx.NopLogger,
		fx.Populate(&cfg, &repo, &log),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if cfg.StoreDriver == config.StoreMemory {
		return fmt.Errorf("STORE_DRIVER=%s keeps nothing after exit, choose mongo or firestore", config.StoreMemory)
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	doc, err := seedDashboard(ctx, repo, cfg, opts, log)
	if err != nil {
		return err
	}
	fmt.Printf("🌱 Seeded %s with %d widgets\n", doc.ID, len(doc.Widgets))
	return nil
}

// seedDashboard lays out the demo widgets on a fresh canvas and writes them
// as one merge write.
func seedDashboard(ctx context.Context, repo document.Repository, cfg *config.Config, opts seedOptions, log *zap.Logger) (*document.Dashboard, error) {
	theme := board.Theme(opts.theme)
	if !theme.Valid() {
		return nil, fmt.Errorf("unknown theme %q", opts.theme)
	}
	id := realtime.DashboardID(opts.userID)

	_, getErr := repo.Get(ctx, id)
	exists := getErr == nil
	switch {
	case exists && !opts.force:
		return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrDashboardExists, id)
	case getErr != nil && !errors.Is(getErr, document.ErrNotFound):
		return nil, fmt.Errorf("load %s: %w", id, getErr)
	}

	store := board.NewStore(log)
	cv := canvas.NewController(store, cfg.CanvasWidth, cfg.CanvasHeight, log)
	for _, t := range demoLayout {
		if _, err := cv.QuickAdd(t); err != nil {
			return nil, fmt.Errorf("place %s: %w", t, err)
		}
	}
	if err := cv.SetTheme(theme); err != nil {
		return nil, err
	}

	state := store.State()
	patch := document.Patch{
		document.FieldWidgets:        state.Widgets,
		document.FieldTheme:          string(state.Theme),
		document.FieldUpdatedAt:      document.ServerTimestamp,
		document.FieldLastModifiedBy: seedWriter,
	}
	if !exists {
		patch[document.FieldCreatedAt] = document.ServerTimestamp
	}
	if opts.userID != "" {
		patch[document.FieldUserID] = opts.userID
		if opts.email != "" {
			patch[document.FieldUserEmail] = opts.email
		}
	}

	if err := repo.Write(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("write %s: %w", id, err)
	}
	log.Info("Seeded dashboard", zap.String("dashboardId", id), zap.Int("widgets", len(state.Widgets)))
	return repo.Get(ctx, id)
}

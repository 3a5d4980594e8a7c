package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/di"
	"signup-agent/internal/domain/entity"
	"signup-agent/internal/infrastructure/config"
	"signup-agent/internal/infrastructure/env"
	"signup-agent/internal/infrastructure/httpapi"
	"signup-agent/internal/infrastructure/storage/dataset"
	"signup-agent/internal/infrastructure/storage/sqlite"
)

var (
	flagConfig     string
	flagRetailers  []string
	flagInclFailed bool
	flagStatusAddr string
)

func main() {
	root := &cobra.Command{
		Use:           "signup-agent",
		Short:         "Fills and submits retailer sign-up forms from a stored profile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a bulk fill over the selected retailers",
		RunE:  runBulk(false),
	}
	runCmd.Flags().StringSliceVar(&flagRetailers, "retailers", nil, "retailer ids to process (default: all listed)")
	runCmd.Flags().BoolVar(&flagInclFailed, "include-failed", false, "also attempt retailers in the failed registry")
	runCmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "serve live run status on this address (e.g. :8099)")

	retryCmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-attempt only retailers in the failed registry",
		RunE:  runBulk(true),
	}
	retryCmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "serve live run status on this address")

	root.AddCommand(runCmd, retryCmd, retailersCmd(), profileCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(flagConfig, env.NewService())
}

// runBulk executes a bulk run; in retry mode the selection is the failed
// registry instead of the default listing.
func runBulk(retryMode bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := di.NewContainer(ctx, cfg)
		if err != nil {
			return err
		}
		defer container.Close()

		if flagStatusAddr != "" {
			statusSrv := httpapi.NewServer(flagStatusAddr, container.Logger)
			container.Tracker.Subscribe(statusSrv)
			go func() {
				if err := statusSrv.ListenAndServe(); err != nil {
					container.Logger.Error("status server", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = statusSrv.Shutdown(shutdownCtx)
			}()
		}

		profile, err := activeProfile(ctx, container.Store)
		if err != nil {
			return err
		}

		retailers, err := selectRetailers(ctx, container.Store, retryMode)
		if err != nil {
			return err
		}
		if len(retailers) == 0 {
			fmt.Println("Nothing to do: no retailers selected.")
			return nil
		}

		// SIGINT cancels cooperatively: in-flight jobs finish, pending ones
		// are skipped.
		go func() {
			<-ctx.Done()
			container.Runner.Cancel()
		}()

		summary, err := container.Runner.Run(ctx, retailers, profile)
		if err != nil {
			return err
		}

		printSummary(summary.Statuses)
		fmt.Printf("\n%d complete, %d errors, %d skipped\n",
			summary.Complete, summary.Errors, summary.Skipped)
		return nil
	}
}

func activeProfile(ctx context.Context, store output.Store) (entity.Profile, error) {
	id, err := store.ActiveProfileID(ctx)
	if err != nil {
		return entity.Profile{}, err
	}
	if id == "" {
		return entity.Profile{}, fmt.Errorf("no active profile; create one with `signup-agent profile create`")
	}
	profiles, err := store.Profiles(ctx)
	if err != nil {
		return entity.Profile{}, err
	}
	profile, ok := profiles[id]
	if !ok {
		return entity.Profile{}, fmt.Errorf("active profile %s not found", id)
	}
	return profile, nil
}

// selectRetailers builds the run set. The default listing is bundled plus
// custom records minus the failed registry; --retailers narrows it by id and
// lets registry members through explicitly.
func selectRetailers(ctx context.Context, store output.Store, retryMode bool) ([]entity.Retailer, error) {
	bundled, err := store.BundledRetailers(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := store.CustomRetailers(ctx)
	if err != nil {
		return nil, err
	}
	failedIDs, err := store.FailedRetailerIDs(ctx)
	if err != nil {
		return nil, err
	}
	failed := make(map[string]bool, len(failedIDs))
	for _, id := range failedIDs {
		failed[id] = true
	}

	all := append(bundled, custom...)

	if retryMode {
		var out []entity.Retailer
		for _, r := range all {
			if failed[r.ID] {
				out = append(out, r)
			}
		}
		return out, nil
	}

	requested := make(map[string]bool, len(flagRetailers))
	for _, id := range flagRetailers {
		requested[id] = true
	}

	var out []entity.Retailer
	for _, r := range all {
		switch {
		case len(requested) > 0:
			if requested[r.ID] {
				out = append(out, r)
			}
		case failed[r.ID] && !flagInclFailed:
			// suppressed from the default listing until explicitly retried
		default:
			out = append(out, r)
		}
	}
	return out, nil
}

func printSummary(statuses map[string]entity.JobStatusEntry) {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := statuses[id]
		line := fmt.Sprintf("  %-28s %s", id, e.Status)
		if e.Message != "" {
			line += "  (" + e.Message + ")"
		}
		fmt.Println(line)
	}
}

func retailersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "retailers", Short: "Manage the retailer list"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bundled and custom retailers",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withStore(func(ctx context.Context, store output.Store) error {
				bundled, err := store.BundledRetailers(ctx)
				if err != nil {
					return err
				}
				custom, err := store.CustomRetailers(ctx)
				if err != nil {
					return err
				}
				for _, r := range append(bundled, custom...) {
					tag := ""
					if r.IsCustom {
						tag = " [custom]"
					}
					fmt.Printf("  %-28s %s%s\n", r.ID, r.SignupURL, tag)
				}
				return nil
			})
		},
	})

	var name, signupURL string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a custom retailer",
		RunE: func(_ *cobra.Command, _ []string) error {
			if name == "" || signupURL == "" {
				return fmt.Errorf("--name and --url are required")
			}
			return withStore(func(ctx context.Context, store output.Store) error {
				r := entity.Retailer{
					ID:        uuid.NewString(),
					Name:      name,
					SignupURL: signupURL,
					IsCustom:  true,
				}
				if !r.HasValidSignupURL() {
					return fmt.Errorf("%q is not an absolute web address", signupURL)
				}
				if err := store.SaveCustomRetailer(ctx, r); err != nil {
					return err
				}
				fmt.Println("Added", r.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&signupURL, "url", "", "sign-up page URL")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a custom retailer (built-ins cannot be removed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store output.Store) error {
				return store.RemoveCustomRetailer(ctx, args[0])
			})
		},
	})

	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage identity profiles"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withStore(func(ctx context.Context, store output.Store) error {
				profiles, err := store.Profiles(ctx)
				if err != nil {
					return err
				}
				active, err := store.ActiveProfileID(ctx)
				if err != nil {
					return err
				}
				for id, p := range profiles {
					marker := " "
					if id == active {
						marker = "*"
					}
					fmt.Printf("%s %-36s %s\n", marker, id, p.Name)
				}
				return nil
			})
		},
	})

	var profName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a profile and make it active",
		RunE: func(_ *cobra.Command, _ []string) error {
			if profName == "" {
				return fmt.Errorf("--name is required")
			}
			return withStore(func(ctx context.Context, store output.Store) error {
				p := entity.NewProfile(uuid.NewString(), profName)
				if err := store.SaveProfile(ctx, p); err != nil {
					return err
				}
				if err := store.SetActiveProfileID(ctx, p.ID); err != nil {
					return err
				}
				fmt.Println("Created", p.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&profName, "name", "", "profile name")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "use <id>",
		Short: "Select the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store output.Store) error {
				profiles, err := store.Profiles(ctx)
				if err != nil {
					return err
				}
				if _, ok := profiles[args[0]]; !ok {
					return fmt.Errorf("profile %s not found", args[0])
				}
				return store.SetActiveProfileID(ctx, args[0])
			})
		},
	})

	set := &cobra.Command{
		Use:   "set <attr=value>...",
		Short: "Set attribute values on the active profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store output.Store) error {
				profile, err := activeProfile(ctx, store)
				if err != nil {
					return err
				}
				for _, arg := range args {
					attr, value, ok := strings.Cut(arg, "=")
					if !ok {
						return fmt.Errorf("expected attr=value, got %q", arg)
					}
					profile.Set(entity.ProfileAttribute(attr), value)
				}
				return store.SaveProfile(ctx, profile)
			})
		},
	}
	cmd.AddCommand(set)

	return cmd
}

// withStore opens the store for a short maintenance command, no browser.
func withStore(fn func(ctx context.Context, store output.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	bundled, err := dataset.Load()
	if err != nil {
		return err
	}
	if err := store.SeedBundledRetailers(ctx, bundled); err != nil {
		return err
	}
	return fn(ctx, store)
}

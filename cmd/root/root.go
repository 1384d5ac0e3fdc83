// Package root contains the root command for the application
package root

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stacknest/internal/config"
	"stacknest/internal/container"
	"stacknest/internal/fixture"
	"stacknest/internal/models"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "stacknest",
		Short: "A CLI for the stacknest savings allocation engine.",
		Long: `stacknest partitions an account's balance into prioritized savings
stacks, funds them on schedules with overflow cascading, tracks goal
completion, and reconciles external transactions back to the stacks they
were spent from.

State lives in memory, so every invocation starts from the scenario file
given with --fixture.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to stacknest!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			cfg, err := config.Load(ConfigFile)
			if err != nil {
				Log.Fatalf("Failed to load configuration: %v", err)
			}
			appContainer, err = container.NewContainer(cfg)
			if err != nil {
				Log.Fatalf("Failed to initialize: %v", err)
			}

			if FixtureFile != "" {
				f, err := fixture.Load(FixtureFile)
				if err != nil {
					Log.Fatalf("Failed to load fixture: %v", err)
				}
				OwnerID, Accounts, err = f.Apply(context.Background(), appContainer.GetEngine())
				if err != nil {
					Log.Fatalf("Failed to apply fixture: %v", err)
				}
				Log.WithField("accounts", len(Accounts)).Info("Scenario loaded")
			}
		},
	}

	// ConfigFile is the optional configuration file path.
	ConfigFile string
	// FixtureFile is the optional YAML scenario loaded before any command
	// runs.
	FixtureFile string

	// OwnerID and Accounts hold the state created from the fixture.
	OwnerID  uuid.UUID
	Accounts []*models.Account

	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Configuration file")
	Cmd.PersistentFlags().StringVarP(&FixtureFile, "fixture", "f", "", "YAML scenario file to load")
}

// GetContainer returns the application container built for this invocation.
func GetContainer() *container.Container {
	return appContainer
}

// FindAccount resolves an account by name or ID among the loaded accounts.
// An empty selector picks the only account when exactly one is loaded.
func FindAccount(selector string) (*models.Account, bool) {
	if selector == "" {
		if len(Accounts) == 1 {
			return Accounts[0], true
		}
		return nil, false
	}
	for _, a := range Accounts {
		if a.Name == selector || a.ID.String() == selector {
			return a, true
		}
	}
	return nil, false
}

// Package seed parses seed command flags and loads the demo registry.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	entrypoint "github.com/louisbranch/homechain/internal/platform/cmd"
	"github.com/louisbranch/homechain/internal/services/homechain/seed"
	"github.com/louisbranch/homechain/internal/services/homechain/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"HOMECHAIN_DB_PATH" envDefault:"data/homechain.db"`
	Fixture string
	Seed    uint64
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite registry database")
	fs.StringVar(&cfg.Fixture, "fixture", "", "fixture YAML file (default: embedded demo data)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the fixture into the registry database.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	fixture, err := seed.LoadFixture(cfg.Fixture)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}
	report, err := seed.Seed(ctx, store, fixture, rng)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %s: %d created, %d already present\n", cfg.DBPath, report.Created, report.Skipped)
	return nil
}

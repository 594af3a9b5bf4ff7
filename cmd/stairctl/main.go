// stairctl manages the stair pricing database from the shell.
//
// Usage:
//
//	stairctl migrate
//	stairctl seed
//	stairctl rules export rules.xlsx
//	stairctl rules import rules.xlsx
//	stairctl price [--rules rules.xlsx] order.json
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Simplici0/stairworks/internal/db"
	"github.com/Simplici0/stairworks/internal/migrations"
	"github.com/Simplici0/stairworks/internal/pricing"
	"github.com/Simplici0/stairworks/internal/rules"
	"github.com/Simplici0/stairworks/internal/seed"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "stairctl",
		Usage: "Stair pricing rules and quotes from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Value:   "./dev.db",
				Usage:   "Path to the SQLite database",
				EnvVars: []string{"DB_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending schema migrations",
				Action: runMigrate,
			},
			{
				Name:   "seed",
				Usage:  "Insert the default material catalog and rules",
				Action: runSeed,
			},
			rulesCommand(),
			{
				Name:      "price",
				Usage:     "Price a stair order read from a JSON file",
				ArgsUsage: "ORDER.json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "rules",
						Usage: "Price against rules from this workbook instead of the database",
					},
				},
				Action: runPrice,
			},
		},
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Exchange pricing rules with spreadsheets",
		Subcommands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Write all rules to an xlsx workbook",
				ArgsUsage: "FILE",
				Action:    runRulesExport,
			},
			{
				Name:      "import",
				Usage:     "Insert or update rules from an xlsx workbook",
				ArgsUsage: "FILE",
				Action:    runRulesImport,
			},
		},
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	database, err := db.Open(c.String("db"))
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func runMigrate(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	v, err := migrations.Version(database)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "schema at version %d\n", v)
	return nil
}

func runSeed(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := seed.Run(c.Context, database)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "seed inserted %d rows\n", stats.Inserts)
	return nil
}

func runRulesExport(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := rules.NewStore(database).List(c.Context)
	if err != nil {
		return err
	}
	buf, err := rules.ExportXLSX(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "exported %d rules to %s\n", len(records), path)
	return nil
}

func runRulesImport(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	records, err := readWorkbook(path)
	if err != nil {
		return err
	}

	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := rules.NewStore(database).Import(c.Context, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "imported %s: %d inserted, %d updated\n", path, stats.Inserts, stats.Updates)
	return nil
}

func runPrice(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open order: %w", err)
	}
	defer f.Close()

	req, err := pricing.DecodeOrderRequest(f)
	if err != nil {
		return err
	}

	store, closeStore, err := ruleSource(c)
	if err != nil {
		return err
	}
	defer closeStore()

	breakdown, err := pricing.NewCalculator(store).Calculate(c.Context, req.Order())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(breakdown)
}

// ruleSource picks the workbook given by --rules, falling back to the
// database named by --db.
func ruleSource(c *cli.Context) (pricing.RuleStore, func(), error) {
	if path := c.String("rules"); path != "" {
		records, err := readWorkbook(path)
		if err != nil {
			return nil, nil, err
		}
		mem := pricing.NewMemoryRules()
		for _, rec := range records {
			if rec.Active {
				mem.Add(rec.Rule)
			}
		}
		return mem, func() {}, nil
	}

	database, err := openDB(c)
	if err != nil {
		return nil, nil, err
	}
	return rules.NewStore(database), func() { database.Close() }, nil
}

func readWorkbook(path string) ([]rules.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return rules.ParseXLSX(f)
}

func fileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one file argument", c.Command.Name)
	}
	return c.Args().First(), nil
}

package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/renatond/dbi-replenishment/internal/config"
	"github.com/renatond/dbi-replenishment/internal/service"
	"github.com/renatond/dbi-replenishment/internal/suppliers"
	"github.com/renatond/dbi-replenishment/pkg/logger"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id            BIGSERIAL PRIMARY KEY,
	location      TEXT NOT NULL,
	status        TEXT NOT NULL,
	total_skus    INTEGER NOT NULL DEFAULT 0,
	po_lines      INTEGER NOT NULL DEFAULT 0,
	assemblies    INTEGER NOT NULL DEFAULT 0,
	transfers     INTEGER NOT NULL DEFAULT 0,
	excluded      INTEGER NOT NULL DEFAULT 0,
	output_file   TEXT,
	error_message TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_runs_location_started ON runs (location, started_at DESC);
`

func newLocationFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "location",
		Usage:   "Warehouse region to run for (e.g. NC, CA)",
		Value:   "NC",
		EnvVars: []string{"REPLENISH_LOCATION"},
	}
}

func newUploadDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "upload-dir",
		Usage:   "Directory containing the Cin7 export files",
		EnvVars: []string{"APP_UPLOAD_DIR"},
	}
}

func buildService(cfg *config.Config) (*service.RunService, *suppliers.Store, error) {
	excluded, err := suppliers.Load(cfg.App.ExcludedFile)
	if err != nil {
		return nil, nil, err
	}
	return service.NewRunService(cfg, excluded), excluded, nil
}

func runGenerate(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	svc, _, err := buildService(cfg)
	if err != nil {
		return err
	}

	locations := []string{c.String("location")}
	if c.Bool("all") {
		locations = cfg.App.Locations
	}

	for _, location := range locations {
		out, err := svc.Execute(c.Context, service.RunRequest{
			Location:  location,
			UploadDir: c.String("upload-dir"),
		})
		if err != nil {
			return fmt.Errorf("run for %s failed: %w", location, err)
		}
		fmt.Printf("%s: %d SKUs, %d PO lines, %d excluded\n",
			strings.ToUpper(location), out.Run.TotalSKUs, out.Run.POLines, out.Run.Excluded)
		for _, file := range out.Files {
			fmt.Printf("  wrote %s\n", file)
		}
	}
	return nil
}

func runAssembly(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	svc, _, err := buildService(cfg)
	if err != nil {
		return err
	}

	out, err := svc.Execute(c.Context, service.RunRequest{
		Location:           c.String("location"),
		UploadDir:          c.String("upload-dir"),
		DeriveBuildTargets: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d assembly orders, %d component orders, %d transfers\n",
		len(out.Result.Assemblies), len(out.Result.Replenishments), len(out.Result.Transfers))
	for _, order := range out.Result.Assemblies {
		fmt.Printf("  %-20s build %.0f  %s\n", order.SKU, order.BuildQty, order.Status)
	}
	for _, file := range out.Files {
		fmt.Printf("  wrote %s\n", file)
	}
	return nil
}

func runMigrate(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(c.Context, runsSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	fmt.Println("schema applied")
	return nil
}

func supplierStore() (*suppliers.Store, error) {
	cfg := config.Load()
	return suppliers.Load(cfg.App.ExcludedFile)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Generate purchase orders and assembly plans from Cin7 exports",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate the purchase-order import file for a location",
				Flags: []cli.Flag{
					newLocationFlag(),
					newUploadDirFlag(),
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Run for every configured location",
					},
				},
				Action: runGenerate,
			},
			{
				Name:  "assembly",
				Usage: "Run the assembly replenishment flow with derived build targets",
				Flags: []cli.Flag{
					newLocationFlag(),
					newUploadDirFlag(),
				},
				Action: runAssembly,
			},
			{
				Name:  "migrate",
				Usage: "Create the run-history schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
				},
				Action: runMigrate,
			},
			{
				Name:  "suppliers",
				Usage: "Manage the excluded-supplier list",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "Print the exclusion list",
						Action: func(c *cli.Context) error {
							store, err := supplierStore()
							if err != nil {
								return err
							}
							for _, name := range store.List() {
								fmt.Println(name)
							}
							return nil
						},
					},
					{
						Name:      "add",
						Usage:     "Add a supplier to the exclusion list",
						ArgsUsage: "<name>",
						Action: func(c *cli.Context) error {
							name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
							if name == "" {
								return fmt.Errorf("supplier name is required")
							}
							store, err := supplierStore()
							if err != nil {
								return err
							}
							return store.Add(name)
						},
					},
					{
						Name:      "remove",
						Usage:     "Remove a supplier from the exclusion list",
						ArgsUsage: "<name>",
						Action: func(c *cli.Context) error {
							name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
							store, err := supplierStore()
							if err != nil {
								return err
							}
							removed, err := store.Remove(name)
							if err != nil {
								return err
							}
							if !removed {
								return fmt.Errorf("%q is not on the exclusion list", name)
							}
							return nil
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

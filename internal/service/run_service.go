// Package service orchestrates a replenishment run: locate the uploaded
// Cin7 exports, load the input tables, execute the calculation engine, write
// the order files, and record the run.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/renatond/dbi-replenishment/internal/cache"
	"github.com/renatond/dbi-replenishment/internal/config"
	"github.com/renatond/dbi-replenishment/internal/domain"
	"github.com/renatond/dbi-replenishment/internal/engine"
	"github.com/renatond/dbi-replenishment/internal/loader"
	"github.com/renatond/dbi-replenishment/internal/report"
	"github.com/renatond/dbi-replenishment/internal/repository/postgres"
	"github.com/renatond/dbi-replenishment/internal/storage"
	"github.com/renatond/dbi-replenishment/pkg/logger"
)

// RunRequest parameterizes one run.
type RunRequest struct {
	Location           string // warehouse region prefix, e.g. "NC"
	UploadDir          string // overrides the configured upload directory
	DeriveBuildTargets bool
}

// RunOutput is what a finished run produced.
type RunOutput struct {
	Run    *domain.Run
	Result *engine.Result
	Files  []string
}

// RunService wires the loader, engine and report writer together. Repository,
// cache and archive are optional: the CLI runs without any of them.
type RunService struct {
	cfg      *config.Config
	engine   *engine.Engine
	excluded engine.SupplierFilter
	runs     postgres.RunRepository
	cache    cache.RunSummaryCache
	archive  storage.ObjectStorage
	log      zerolog.Logger
}

func NewRunService(cfg *config.Config, excluded engine.SupplierFilter) *RunService {
	return &RunService{
		cfg:      cfg,
		engine:   engine.New(),
		excluded: excluded,
		cache:    cache.NewNoopRunCache(),
		log:      logger.Component("run-service"),
	}
}

// WithRepository enables run-history persistence.
func (s *RunService) WithRepository(runs postgres.RunRepository) *RunService {
	s.runs = runs
	return s
}

// WithCache enables latest-run summary caching.
func (s *RunService) WithCache(c cache.RunSummaryCache) *RunService {
	if c != nil {
		s.cache = c
	}
	return s
}

// WithArchive enables uploading generated files to object storage.
func (s *RunService) WithArchive(a storage.ObjectStorage) *RunService {
	s.archive = a
	return s
}

// Execute performs a full run for one location.
func (s *RunService) Execute(ctx context.Context, req RunRequest) (*RunOutput, error) {
	location := strings.ToUpper(strings.TrimSpace(req.Location))
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	uploadDir := req.UploadDir
	if uploadDir == "" {
		uploadDir = s.cfg.App.UploadDir
	}

	var runID int64
	if s.runs != nil {
		id, err := s.runs.Create(ctx, location)
		if err != nil {
			return nil, err
		}
		runID = id
	}

	out, err := s.execute(ctx, location, uploadDir, req.DeriveBuildTargets)
	if err != nil {
		if s.runs != nil {
			if failErr := s.runs.Fail(ctx, runID, err.Error()); failErr != nil {
				s.log.Error().Err(failErr).Int64("run_id", runID).Msg("failed to record run failure")
			}
		}
		return nil, err
	}

	run := &domain.Run{
		ID:         runID,
		Location:   location,
		Status:     domain.RunCompleted,
		TotalSKUs:  len(out.Result.Records),
		POLines:    len(out.Result.POLines),
		Assemblies: len(out.Result.Assemblies),
		Transfers:  len(out.Result.Transfers),
		Excluded:   out.Result.ExcludedCount,
		StartedAt:  time.Now(),
	}
	if len(out.Files) > 0 {
		run.OutputFile = out.Files[0]
	}
	out.Run = run

	if s.runs != nil {
		if err := s.runs.Complete(ctx, run); err != nil {
			return nil, err
		}
	}
	if err := s.cache.SetLatest(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("location", location).Msg("failed to cache run summary")
	}
	if s.archive != nil {
		s.archiveFiles(ctx, location, out.Files)
	}

	return out, nil
}

func (s *RunService) execute(ctx context.Context, location, uploadDir string, deriveTargets bool) (*RunOutput, error) {
	inputs, err := s.loadInputs(ctx, uploadDir, location)
	if err != nil {
		return nil, err
	}

	tiers := engine.DefaultTierTable()
	if s.cfg.App.TierTablePath != "" {
		tiers, err = engine.LoadTierTable(s.cfg.App.TierTablePath)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.engine.Run(ctx, *inputs, engine.Options{
		Region:             location,
		Tiers:              tiers,
		Excluded:           s.excluded,
		SafetyBufferDays:   s.cfg.App.SafetyBufferDays,
		DeriveBuildTargets: deriveTargets,
		AssemblyLocations:  s.cfg.App.AssemblyLocations,
		DonorLocation:      s.cfg.App.DonorLocation,
		PrimaryLocation:    s.cfg.App.PrimaryLocation,
		SalesPeriods:       s.cfg.App.SalesPeriods,
	})
	if err != nil {
		return nil, err
	}

	files, err := s.writeReports(location, result)
	if err != nil {
		return nil, err
	}

	return &RunOutput{Result: result, Files: files}, nil
}

// loadInputs finds and loads the five input tables. Availability, inventory,
// replenishment and sales are required; the BOM export is optional and its
// absence just disables the assembly flow.
func (s *RunService) loadInputs(ctx context.Context, dir, location string) (*engine.Inputs, error) {
	availPath, err := findFile(dir, "AvailabilityReport_*.csv")
	if err != nil {
		return nil, err
	}
	invPath, err := findFile(dir, "InventoryList_*.csv")
	if err != nil {
		return nil, err
	}
	replPath, err := findFile(dir,
		fmt.Sprintf("replenishment-Combined %s Warehouses-variants-*.csv", location),
		fmt.Sprintf("replenishment-Combined_%s_Warehouses-variants-*.csv", location),
	)
	if err != nil {
		return nil, err
	}
	salesPath, err := findFile(dir, "Sales by Product Details Report.xlsx")
	if err != nil {
		return nil, err
	}
	bomPath, _ := findFile(dir, "BOM*.csv")

	var inputs engine.Inputs
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := loader.LoadAvailability(availPath)
		inputs.Availability = rows
		return err
	})
	g.Go(func() error {
		rows, err := loader.LoadInventory(invPath)
		inputs.Inventory = rows
		return err
	})
	g.Go(func() error {
		rows, err := loader.LoadReplenishment(replPath)
		inputs.Replenishment = rows
		return err
	})
	g.Go(func() error {
		rows, err := loader.LoadSales(salesPath)
		inputs.Sales = rows
		return err
	})
	if bomPath != "" {
		g.Go(func() error {
			rows, err := loader.LoadBOM(bomPath)
			inputs.BOM = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &inputs, nil
}

func (s *RunService) writeReports(location string, result *engine.Result) ([]string, error) {
	loc := strings.ToLower(location)
	outDir := s.cfg.App.OutputDir

	poPath := filepath.Join(outDir, fmt.Sprintf("purchase_order_%s.csv", loc))
	if err := report.WritePOImport(poPath, result.POLines); err != nil {
		return nil, err
	}
	files := []string{poPath}

	if len(result.Assemblies) > 0 {
		path := filepath.Join(outDir, fmt.Sprintf("assembly_orders_%s.csv", loc))
		if err := report.WriteAssemblyOrders(path, result.Assemblies); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if len(result.Replenishments) > 0 {
		path := filepath.Join(outDir, fmt.Sprintf("component_orders_%s.csv", loc))
		if err := report.WriteComponentReplenishments(path, result.Replenishments); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if len(result.Transfers) > 0 {
		path := filepath.Join(outDir, fmt.Sprintf("transfers_%s.csv", loc))
		if err := report.WriteTransfers(path, result.Transfers); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (s *RunService) archiveFiles(ctx context.Context, location string, files []string) {
	prefix := fmt.Sprintf("runs/%s/%s", strings.ToLower(location), time.Now().Format("20060102-150405"))
	for _, path := range files {
		key := prefix + "/" + filepath.Base(path)
		if err := s.archive.UploadFile(ctx, key, path); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to archive output file")
			continue
		}
		s.log.Info().Str("key", key).Msg("archived output file")
	}
}

// findFile resolves the first file matching any of the patterns in dir.
func findFile(dir string, patterns ...string) (string, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("no file matching %q in %s", patterns[0], dir)
}

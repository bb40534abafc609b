// Package commands implements the CLI commands that drive the
// reconciliation engine against scenario data.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/application/services/reconcile"
	"github.com/hexplastics/prodlog/pkg/application/services/stockentry"
	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/infrastructure/config"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
	"github.com/hexplastics/prodlog/pkg/infrastructure/repositories/csv"
	"github.com/hexplastics/prodlog/pkg/infrastructure/repositories/memory"
	"github.com/hexplastics/prodlog/pkg/interfaces/cli/output"
)

// Config holds configuration for the shift command
type Config struct {
	ScenarioDir    string
	WarehousesFile string

	Date  string
	Shift string

	BOMID    string
	Plan     string
	Produced string
	Gross    string
	Packing  string

	HopperItem    string
	HopperAddUsed string
	MipGenerated  string
	MipUsed       string
	ProcessLoss   string

	Submit  bool
	Format  string
	Verbose bool
	Help    bool
}

// ShiftCommand runs one production shift through the engine: it loads the
// scenario data, drives the derivation from the given process inputs, and
// prints the reconciled record (and, with -submit, its stock entries).
type ShiftCommand struct {
	config Config
	log    *logrus.Logger
}

// NewShiftCommand creates a new shift command with the given configuration
func NewShiftCommand(cfg Config, log *logrus.Logger) *ShiftCommand {
	return &ShiftCommand{config: cfg, log: log}
}

// Execute runs the shift command
func (c *ShiftCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	warehouses, hopperWarehouse, err := c.loadWarehouses()
	if err != nil {
		return err
	}

	boms, ledger, items, err := c.loadScenario()
	if err != nil {
		return err
	}

	store := events.NewInMemoryEventStore()
	engine, err := reconcile.NewEngine(boms, ledger, items, reconcile.Config{
		Warehouses: warehouses,
		Logger:     c.log,
		Events:     store,
	})
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	builder := stockentry.NewBuilder(items, ledger, hopperWarehouse, c.log)
	records := memory.NewRecordRepository(builder, ledger, store)

	record, err := c.buildRecord(ctx, records)
	if err != nil {
		return err
	}
	defer engine.Release(record.ID)

	if err := c.drive(ctx, engine, record); err != nil {
		return err
	}

	var entries []*stockentry.Entry
	if c.config.Submit {
		if err := records.Submit(ctx, record); err != nil {
			return fmt.Errorf("submitting record: %w", err)
		}
		if entry, ok := records.PostedEntry(record.StockEntryNo); ok {
			entries = append(entries, entry)
		}
		if c.config.Verbose {
			fmt.Printf("Submitted %s as stock entry %s\n\n", record.ID, record.StockEntryNo)
		}
	}

	return output.RenderRecord(record, entries, output.Config{
		Format: c.config.Format,
		Out:    os.Stdout,
	})
}

func (c *ShiftCommand) validateInputs() error {
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("scenario directory is required (-scenario)")
	}
	if c.config.BOMID == "" {
		return fmt.Errorf("a BOM is required (-bom)")
	}
	if _, err := time.Parse("2006-01-02", c.config.Date); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", c.config.Date)
	}
	if _, err := entities.ParseShift(c.config.Shift); err != nil {
		return err
	}
	return nil
}

func (c *ShiftCommand) loadWarehouses() (*entities.WarehouseMap, string, error) {
	path := c.config.WarehousesFile
	if path == "" {
		path = filepath.Join(c.config.ScenarioDir, "warehouses.yaml")
	}

	cfg, err := config.LoadWarehouseConfig(path)
	if err != nil {
		return nil, "", err
	}
	warehouses, err := cfg.WarehouseMap()
	if err != nil {
		return nil, "", err
	}
	return warehouses, cfg.HopperWarehouse, nil
}

func (c *ShiftCommand) loadScenario() (*memory.BOMRepository, *memory.StockLedgerRepository, *memory.ItemRepository, error) {
	loader := csv.NewLoader()
	dir := c.config.ScenarioDir

	items, err := loader.LoadItems(filepath.Join(dir, "items.csv"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading items: %w", err)
	}
	boms, err := loader.LoadBOMs(filepath.Join(dir, "boms.csv"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading BOMs: %w", err)
	}

	// Ledger history is optional; a scenario may start from a clean slate.
	var history []memory.ShiftSnapshot
	ledgerPath := filepath.Join(dir, "ledger.csv")
	if _, statErr := os.Stat(ledgerPath); statErr == nil {
		history, err = loader.LoadLedgerHistory(ledgerPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error loading ledger history: %w", err)
		}
	}

	if c.config.Verbose {
		fmt.Printf("Loaded %d items, %d BOMs, %d prior shifts\n\n", len(items), len(boms), len(history))
	}

	itemRepo := memory.NewItemRepository()
	for _, item := range items {
		itemRepo.AddItem(item)
	}

	bomRepo := memory.NewBOMRepository()
	for _, bom := range boms {
		bomRepo.AddBOM(bom)
	}

	ledgerRepo := memory.NewStockLedgerRepository()
	for _, snapshot := range history {
		ledgerRepo.RecordSnapshot(snapshot)
	}

	return bomRepo, ledgerRepo, itemRepo, nil
}

func (c *ShiftCommand) buildRecord(ctx context.Context, records *memory.RecordRepository) (*entities.ProductionRecord, error) {
	date, _ := time.Parse("2006-01-02", c.config.Date)
	shift, _ := entities.ParseShift(c.config.Shift)

	record := entities.NewProductionRecord("", entities.NewShiftRef(date, shift))
	record.HopperItem = entities.ItemCode(c.config.HopperItem)
	if err := records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	return record, nil
}

// drive applies the command's process inputs through the engine in entry
// order, the way an operator would fill the form.
func (c *ShiftCommand) drive(ctx context.Context, engine *reconcile.Engine, record *entities.ProductionRecord) error {
	steps := []struct {
		flag  string
		value string
		apply func(decimal.Decimal) error
	}{
		{"plan", c.config.Plan, func(v decimal.Decimal) error {
			return engine.SetQtyToManufacture(ctx, record, v)
		}},
		{"produced", c.config.Produced, func(v decimal.Decimal) error {
			return engine.SetManufacturedQty(ctx, record, v)
		}},
		{"gross", c.config.Gross, func(v decimal.Decimal) error {
			return engine.SetGrossWeight(ctx, record, v)
		}},
		{"packing", c.config.Packing, func(v decimal.Decimal) error {
			return engine.SetPackingWeight(ctx, record, v)
		}},
		{"hopper-add-used", c.config.HopperAddUsed, func(v decimal.Decimal) error {
			return engine.SetHopperAddOrUsed(ctx, record, v)
		}},
		{"mip-generated", c.config.MipGenerated, func(v decimal.Decimal) error {
			return engine.SetMipGenerated(ctx, record, v)
		}},
		{"mip-used", c.config.MipUsed, func(v decimal.Decimal) error {
			return engine.SetMipUsed(ctx, record, v)
		}},
		{"process-loss", c.config.ProcessLoss, func(v decimal.Decimal) error {
			return engine.SetProcessLossWeight(ctx, record, v)
		}},
	}

	if err := engine.SelectBOM(ctx, record, c.config.BOMID); err != nil {
		return fmt.Errorf("selecting BOM: %w", err)
	}

	for _, step := range steps {
		if step.value == "" {
			continue
		}
		value, err := decimal.NewFromString(step.value)
		if err != nil {
			return fmt.Errorf("invalid -%s value %q", step.flag, step.value)
		}
		if err := step.apply(value); err != nil {
			return fmt.Errorf("applying -%s: %w", step.flag, err)
		}
	}

	return nil
}

func (c *ShiftCommand) showHelp() {
	fmt.Println(`prodlog shift - reconcile one production shift

Runs a production record through the derivation engine using scenario
data from CSV files and prints the reconciled record.

Scenario directory layout:
  items.csv        item master (code, name, uom, type, rates)
  boms.csv         BOM lines grouped by bom_id
  ledger.csv       prior shift closing balances (optional)
  warehouses.yaml  category-to-warehouse mapping

Flags:
  -scenario DIR     scenario directory (required)
  -warehouses FILE  warehouse map YAML (default: scenario/warehouses.yaml)
  -date YYYY-MM-DD  production date
  -shift NAME       Day or Night
  -bom ID           BOM to select (required)
  -plan QTY         quantity to manufacture
  -produced QTY     manufactured quantity
  -gross QTY        gross weight
  -packing QTY      packing/fabric weight
  -hopper-item CODE hopper mix item
  -hopper-add-used QTY, -mip-generated QTY, -mip-used QTY, -process-loss QTY
  -submit           submit the record and print its stock entries
  -format FORMAT    text or json (default: text)
  -verbose          chatty progress output`)
}

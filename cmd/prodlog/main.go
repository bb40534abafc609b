package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hexplastics/prodlog/pkg/infrastructure/config"
	"github.com/hexplastics/prodlog/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		warehousesFile = flag.String("warehouses", "", "Path to warehouse map YAML (default: scenario/warehouses.yaml)")
		date           = flag.String("date", "", "Production date (YYYY-MM-DD)")
		shift          = flag.String("shift", "Day", "Production shift: Day or Night")
		bomID          = flag.String("bom", "", "BOM to select for the record")
		plan           = flag.String("plan", "", "Quantity to manufacture")
		produced       = flag.String("produced", "", "Manufactured quantity")
		gross          = flag.String("gross", "", "Gross weight")
		packing        = flag.String("packing", "", "Packing/fabric weight")
		hopperItem     = flag.String("hopper-item", "", "Hopper mix item code")
		hopperAddUsed  = flag.String("hopper-add-used", "", "Hopper material added or used")
		mipGenerated   = flag.String("mip-generated", "", "Material-in-process generated")
		mipUsed        = flag.String("mip-used", "", "Material-in-process used")
		processLoss    = flag.String("process-loss", "", "Process loss weight")
		submit         = flag.Bool("submit", false, "Submit the record and print its stock entries")
		format         = flag.String("format", "text", "Output format: text, json")
		verbose        = flag.Bool("verbose", false, "Enable verbose output")
		help           = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	env := config.LoadEnv()
	log := config.NewLogger(env.LogLevel)

	cmd := commands.NewShiftCommand(commands.Config{
		ScenarioDir:    *scenarioDir,
		WarehousesFile: *warehousesFile,
		Date:           *date,
		Shift:          *shift,
		BOMID:          *bomID,
		Plan:           *plan,
		Produced:       *produced,
		Gross:          *gross,
		Packing:        *packing,
		HopperItem:     *hopperItem,
		HopperAddUsed:  *hopperAddUsed,
		MipGenerated:   *mipGenerated,
		MipUsed:        *mipUsed,
		ProcessLoss:    *processLoss,
		Submit:         *submit,
		Format:         *format,
		Verbose:        *verbose,
		Help:           *help,
	}, log)

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadWarehouseConfig(t *testing.T) {
	path := writeFile(t, "warehouses.yaml", `
raw_material_source: "Raw Material - HEX"
scrap_target: "Production - HEX"
main_product_target: "Finished Goods - HEX"
hopper_warehouse: "Hopper - HEX"
`)

	cfg, err := LoadWarehouseConfig(path)
	if err != nil {
		t.Fatalf("LoadWarehouseConfig failed: %v", err)
	}

	wm, err := cfg.WarehouseMap()
	if err != nil {
		t.Fatalf("WarehouseMap failed: %v", err)
	}
	if wm.RawMaterialSource != "Raw Material - HEX" {
		t.Errorf("raw source = %q", wm.RawMaterialSource)
	}
	if wm.ScrapTarget != "Production - HEX" {
		t.Errorf("scrap target = %q", wm.ScrapTarget)
	}
	if cfg.HopperWarehouse != "Hopper - HEX" {
		t.Errorf("hopper warehouse = %q", cfg.HopperWarehouse)
	}
}

func TestLoadWarehouseConfig_MissingWarehouse(t *testing.T) {
	path := writeFile(t, "warehouses.yaml", `
raw_material_source: "Raw Material - HEX"
scrap_target: ""
main_product_target: "Finished Goods - HEX"
`)

	if _, err := LoadWarehouseConfig(path); err == nil {
		t.Error("expected validation error for empty scrap target")
	}
}

func TestLoadWarehouseConfig_MissingFile(t *testing.T) {
	if _, err := LoadWarehouseConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		User: "prodlog", Password: "secret",
		Host: "db.internal", Port: "3306", Name: "erp",
	}
	want := "prodlog:secret@tcp(db.internal:3306)/erp?parseTime=true"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	for _, key := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := LoadEnv()
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != "3306" {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

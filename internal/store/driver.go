package store

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverFactory is a function that creates a gorm.Dialector
type DriverFactory func(dsn string) gorm.Dialector

// driverFactories maps driver names to their factory functions
var driverFactories = map[string]DriverFactory{
	"sqlite":   sqlite.Open,
	"postgres": postgres.Open,
}

// driverAliases maps alternative spellings to registered driver names
var driverAliases = map[string]string{
	"sqlite3":    "sqlite",
	"postgresql": "postgres",
	"pg":         "postgres",
}

// GetDialector returns a GORM dialector for the given driver name and DSN
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	name := normalizeDriver(driver)
	factory, exists := driverFactories[name]
	if !exists {
		return nil, fmt.Errorf(
			"unsupported database driver: %s (supported: %s)",
			driver, strings.Join(Drivers(), ", "),
		)
	}
	return factory(dsn), nil
}

// RegisterDriver allows registering custom database drivers
func RegisterDriver(name string, factory DriverFactory) {
	driverFactories[name] = factory
}

// Drivers returns the registered driver names in sorted order
func Drivers() []string {
	names := make([]string, 0, len(driverFactories))
	for name := range driverFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeDriver(driver string) string {
	name := strings.ToLower(strings.TrimSpace(driver))
	if alias, ok := driverAliases[name]; ok {
		return alias
	}
	return name
}

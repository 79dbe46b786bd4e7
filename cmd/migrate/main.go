package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/database"
)

func main() {
	var (
		dbType   = flag.String("db", "sqlite", "Database type (postgres or sqlite)")
		host     = flag.String("host", "localhost", "Database host")
		port     = flag.Int("port", 5432, "Database port")
		user     = flag.String("user", "natya", "Database user")
		password = flag.String("password", "", "Database password")
		dbName   = flag.String("name", "natya", "Database name")
		dbPath   = flag.String("path", "./natya.db", "SQLite database path")
		status   = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	config := database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *dbPath,
	}

	config, err := applyEnv(config)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.NewDB(config)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db)

	if *status {
		statuses, err := migrator.Status()
		if err != nil {
			log.Fatal("Failed to get migration status: ", err)
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Version", "Name", "Status", "Applied At"})
		for _, s := range statuses {
			state, appliedAt := "pending", ""
			if s.Applied {
				state = "applied"
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			tw.AppendRow(table.Row{s.Version, s.Name, state, appliedAt})
		}
		fmt.Println(tw.Render())
		return
	}

	fmt.Printf("Running %s migrations...\n", config.Type)
	applied, err := migrator.Run()
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	fmt.Printf("Migrations completed successfully! (%d applied)\n", applied)
}

// applyEnv overrides flag values with the same environment variables the server reads.
func applyEnv(config database.Config) (database.Config, error) {
	if env := os.Getenv("STORE_BACKEND"); env == database.TypeSQLite || env == database.TypePostgres {
		config.Type = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		p, err := strconv.Atoi(env)
		if err != nil {
			return config, fmt.Errorf("invalid DB_PORT %q: %w", env, err)
		}
		config.Port = p
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Name = env
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		config.SQLitePath = env
	}
	return config, nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blogengine/internal/config"
	"github.com/blogengine/internal/db"
)

func main() {
	cfg := config.Load()

	var username, email, password string
	flag.StringVar(&username, "username", "", "login name of the new account")
	flag.StringVar(&email, "email", "", "email address")
	flag.StringVar(&password, "password", os.Getenv("SUPERUSER_PASSWORD"), "password (defaults to $SUPERUSER_PASSWORD)")
	flag.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "sqlite db path")
	flag.StringVar(&cfg.DatabaseURL, "dsn", cfg.DatabaseURL, "postgres connection string")
	flag.Parse()

	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		flag.Usage()
		os.Exit(2)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN()); err != nil {
		fmt.Fprintf(os.Stderr, "init db: %v\n", err)
		os.Exit(1)
	}

	user, err := db.CreateSuperuser(db.DB, username, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create superuser: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Superuser %s created successfully.\n", user.Username)
}

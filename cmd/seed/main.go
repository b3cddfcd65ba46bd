package main

import (
	"fmt"
	"os"

	"github.com/milanenterprises/cleancare-backend/config"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "bootstrap CleanCare data",
		Before: func(c *cli.Context) error {
			logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "import-products",
				Usage:     "import products from an XLSX sheet",
				ArgsUsage: "<xlsx_file_path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
					&cli.StringFlag{Name: "sheet", Usage: "sheet name (defaults to the first sheet)"},
				},
				Action: importProducts,
			},
			{
				Name:  "create-admin",
				Usage: "create a staff account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "first-name", Value: "Store"},
					&cli.StringFlag{Name: "last-name", Value: "Admin"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("Seed command failed", err)
	}
}

func connect() (func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return func() { db.Close() }, nil
}

func importProducts(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: seed import-products <xlsx_file_path>", 2)
	}
	filePath := c.Args().First()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, rowErrors, err := readProductsFromXLSX(filePath, c.String("sheet"))
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrors {
		fmt.Printf("  skipped %s\n", rowErr)
	}
	fmt.Printf("Products to import: %d (skipped %d)\n", len(rows), len(rowErrors))
	if len(rows) == 0 {
		return nil
	}

	if !c.Bool("yes") {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	closeDB, err := connect()
	if err != nil {
		return err
	}
	defer closeDB()

	database := db.GetDB()
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed categories", logger.Fields{"error": err.Error()})
	}
	categoryRepo := repository.NewCategoryRepository(database)
	productService := service.NewProductService(repository.NewProductRepository(database), categoryRepo)

	imported, failed := importRows(rows, categoryRepo, productService)
	fmt.Println("Import completed.")
	fmt.Printf("Imported: %d, failed: %d\n", imported, failed)
	return nil
}

func createAdmin(c *cli.Context) error {
	closeDB, err := connect()
	if err != nil {
		return err
	}
	defer closeDB()

	authService := service.NewAuthService(repository.NewUserRepository(db.GetDB()), nil, "", 0, 0)
	user, err := authService.CreateAdmin(c.String("email"), c.String("password"), c.String("first-name"), c.String("last-name"))
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("Admin account created", logger.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

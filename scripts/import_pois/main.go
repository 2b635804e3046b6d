package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Imports the POI catalog from a spreadsheet. Expected columns per row:
// name, category, latitude, longitude, address. First row is a header.
//
// Usage: go run scripts/import_pois/main.go <file.xlsx>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if len(os.Args) < 2 {
		log.Fatal("usage: import_pois <file.xlsx>")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if err := db.AutoMigrate(&models.POI{}); err != nil {
		log.Fatal("failed to migrate pois table:", err)
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	repo := repositories.NewPOIRepository(db)
	totalImported := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 4 { // Skip header or invalid rows
				continue
			}

			lat, err := strconv.ParseFloat(row[2], 64)
			if err != nil {
				fmt.Printf("Invalid latitude %q in row %d, skipping\n", row[2], i+1)
				continue
			}
			lng, err := strconv.ParseFloat(row[3], 64)
			if err != nil {
				fmt.Printf("Invalid longitude %q in row %d, skipping\n", row[3], i+1)
				continue
			}

			poi := &models.POI{
				Name:      row[0],
				Category:  row[1],
				Latitude:  lat,
				Longitude: lng,
			}
			if len(row) > 4 {
				poi.Address = row[4]
			}

			if poi.Name == "" {
				continue
			}

			if err := repo.Upsert(poi); err != nil {
				fmt.Printf("Failed to import %q: %v\n", poi.Name, err)
				continue
			}
			totalImported++
		}
	}

	fmt.Printf("Imported %d POIs\n", totalImported)
}

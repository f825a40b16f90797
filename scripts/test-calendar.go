package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vietmass/churchfinder/internal/calendar"
	"github.com/vietmass/churchfinder/internal/church"
)

func main() {
	// Create a sample church
	rec := church.NewRecord(
		"Nhà thờ Đức Bà Sài Gòn",
		"01 Công xã Paris, Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh",
		[]string{"05:30", "17:30"},
		"https://giothanhle.net/gio-le/nha-tho-duc-ba",
	)

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading timezone: %v\n", err)
		os.Exit(1)
	}

	// Generate .ics file
	icsContent := calendar.GenerateICS(rec, loc)

	// Write to file (owner read/write only for security)
	filename := "test-mass-times.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}

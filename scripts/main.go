package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/leasebill/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "seed-leases",
		Description: "Seed landlords and active monthly leases for local runs",
		Run:         internal.SeedLeases,
	},
	{
		Name:        "schedule-ensure",
		Description: "Create or update the billing-run temporal schedule",
		Run:         internal.EnsureSchedule,
	},
	{
		Name:        "schedule-pause",
		Description: "Pause the billing-run temporal schedule",
		Run:         internal.PauseSchedule,
	},
	{
		Name:        "schedule-unpause",
		Description: "Unpause the billing-run temporal schedule",
		Run:         internal.UnpauseSchedule,
	},
	{
		Name:        "schedule-trigger",
		Description: "Fire the billing-run temporal schedule now",
		Run:         internal.TriggerSchedule,
	},
	{
		Name:        "schedule-delete",
		Description: "Delete the billing-run temporal schedule",
		Run:         internal.DeleteSchedule,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		tenantID     string
		count        int
		note         string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&tenantID, "tenant-id", "", "Tenant ID for operations")
	flag.IntVar(&count, "count", 0, "Number of leases to seed")
	flag.StringVar(&note, "note", "", "Note recorded on schedule pause and unpause")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	if tenantID != "" {
		os.Setenv("TENANT_ID", tenantID)
	}
	if count > 0 {
		os.Setenv("SEED_COUNT", fmt.Sprint(count))
	}
	if note != "" {
		os.Setenv("SCHEDULE_NOTE", note)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}

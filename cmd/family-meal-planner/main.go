package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/schedule"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	svc, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	application := app.NewApp(svc, os.Stdout)

	args := os.Args[2:]
	switch os.Args[1] {
	case "children":
		parentID := cfg.TelegramParentID
		if len(args) > 0 {
			parentID = args[0]
		}
		err = application.ListChildren(ctx, parentID)
	case "week":
		childID, start := childAndStart(args)
		err = application.ShowWeek(ctx, childID, start)
	case "shopping":
		childID, start := childAndStart(args)
		err = application.ShowShopping(ctx, childID, start)
	case "express":
		childID, start := childAndStart(args)
		err = application.RunExpress(ctx, childID, start)
	case "import-recipe":
		if len(args) < 1 {
			log.Fatal("Usage: family-meal-planner import-recipe <url>")
		}
		err = application.ImportRecipe(ctx, args[0])
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)
		err = application.CleanupMetrics(ctx, *days)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

// childAndStart reads "<childID> [yyyy-MM-dd]". The start defaults to today.
func childAndStart(args []string) (string, time.Time) {
	if len(args) < 1 {
		log.Fatalf("Usage: family-meal-planner %s <childID> [start]", os.Args[1])
	}
	start := time.Now()
	if len(args) > 1 {
		d, err := schedule.ParseDate(args[1])
		if err != nil {
			log.Fatalf("Invalid start date %q, use %s", args[1], schedule.DateLayout)
		}
		start = d
	}
	return args[0], start
}

func printUsage() {
	fmt.Println("Usage: family-meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  children [parentID]           List the children of a parent")
	fmt.Println("  week <childID> [start]        Show the weekly grid")
	fmt.Println("  shopping <childID> [start]    Show the shopping list of the week")
	fmt.Println("  express <childID> [start]     Generate recipes for every empty slot of the week")
	fmt.Println("  import-recipe <url>           Import a recipe from a web page")
	fmt.Println("  metrics-cleanup -days N       Remove old metric records")
}

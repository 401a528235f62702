package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rafael/cbenef/internal/client"
	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/extract"
	"github.com/rafael/cbenef/internal/models"
	"github.com/rafael/cbenef/internal/service"
)

func main() {
	statesFlag := flag.String("states", "", "comma-separated state codes to extract (default: all enabled)")
	searchFlag := flag.String("search", "", "filter extracted benefits by description substring")
	codeFlag := flag.String("code", "", "look up one benefit by full code, e.g. SC850001")
	statsFlag := flag.Bool("stats", false, "print per-state extraction summary instead of records")
	activeFlag := flag.Bool("active", false, "only show benefits active today")
	configFlag := flag.String("config", os.Getenv("CBENEF_CONFIG"), "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	httpClient := client.NewHTTPClient(cfg)
	download := client.NewDownloadClient(cfg, httpClient)
	avail := client.NewAvailabilityClient(cfg, httpClient)
	factory := extract.NewFactory(cfg, download, avail)
	integration := service.NewIntegration(cfg, factory)
	library := service.NewLibrary(cfg, integration, nil)

	ctx := context.Background()

	if *codeFlag != "" {
		record := library.FindBenefitByCode(ctx, *codeFlag)
		if record == nil {
			log.Fatalf("No benefit found for code %s", *codeFlag)
		}
		renderRecords([]models.BenefitRecord{*record})
		return
	}

	var results []models.ExtractionResult
	if *statesFlag != "" {
		states := splitCSV(*statesFlag)
		results = integration.ExtractMultipleStates(ctx, states)
	} else {
		results = integration.ExtractAllStates(ctx)
	}

	if *statsFlag {
		renderStats(results)
		return
	}

	var records []models.BenefitRecord
	for _, result := range results {
		if result.IsSuccess() {
			records = append(records, result.Records...)
		} else {
			log.Printf("%s: %s (%s)", result.StateCode, result.Status, result.ErrorMessage)
		}
	}

	records = service.Search(records, service.SearchCriteria{
		Description: *searchFlag,
		ActiveOnly:  *activeFlag,
	})
	renderRecords(records)
}

func renderStats(results []models.ExtractionResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"State", "Source", "Status", "Records", "Extracted At"})

	total := 0
	for _, result := range results {
		t.AppendRow(table.Row{
			result.StateCode,
			result.SourceName,
			result.Status,
			result.RecordCount(),
			result.ExtractedAt.Format("15:04:05"),
		})
		total += result.RecordCount()
	}
	t.AppendFooter(table.Row{"", "", "Total", total, ""})
	t.Render()
}

func renderRecords(records []models.BenefitRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Code", "Type", "Start", "End", "Description"})

	for _, rec := range records {
		end := "-"
		if rec.EndDate != nil {
			end = rec.EndDate.Format("02/01/2006")
		}
		t.AppendRow(table.Row{
			rec.FullCode(),
			rec.BenefitType,
			rec.StartDate.Format("02/01/2006"),
			end,
			truncate(rec.Description, 70),
		})
	}
	t.Render()
	fmt.Printf("%d benefits\n", len(records))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

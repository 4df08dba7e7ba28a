package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/store"
)

// RosterExporter periodically pushes the full students table into a
// Google Sheet so the registrar side can read it without touching the app.
type RosterExporter struct {
	config        *app.Config
	store         store.StudentStore
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewRosterExporter(config *app.Config, store store.StudentStore) (*RosterExporter, error) {
	ctx := context.Background()

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(config.GSheet.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	e := &RosterExporter{
		config:        config,
		store:         store,
		scheduler:     gocron.NewScheduler(time.UTC),
		sheetsService: svc,
	}

	every := config.GSheet.EveryMinutes
	if every <= 0 {
		every = 30
	}
	if _, err := e.scheduler.Every(every).Minutes().Do(e.exportOnce); err != nil {
		return nil, fmt.Errorf("failed to schedule roster export: %w", err)
	}

	e.scheduler.StartAsync()
	logger.Info.Printf("Roster export scheduled every %d minutes", every)

	return e, nil
}

func (e *RosterExporter) Stop() {
	e.scheduler.Stop()
}

func (e *RosterExporter) exportOnce() {
	students, err := e.store.ListStudents()
	if err != nil {
		logger.Error.Printf("Roster export: failed to list students: %v", err)
		return
	}

	values := [][]interface{}{
		{"id", "name", "sex", "birth_date", "birth_place", "department", "sno"},
	}
	for _, s := range students {
		values = append(values, []interface{}{
			*s.ID, s.Name, s.Sex, s.BirthDate, s.BirthPlace, s.Department, s.Sno,
		})
	}

	sheetRange := fmt.Sprintf("%s!A1", e.config.GSheet.SheetName)

	// clear first so rows deleted from the roster disappear from the sheet
	_, err = e.sheetsService.Spreadsheets.Values.
		Clear(e.config.GSheet.SpreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).
		Do()
	if err != nil {
		logger.Error.Printf("Roster export: failed to clear sheet: %v", err)
		return
	}

	_, err = e.sheetsService.Spreadsheets.Values.
		Update(e.config.GSheet.SpreadsheetID, sheetRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		logger.Error.Printf("Roster export: failed to update sheet: %v", err)
		return
	}

	logger.Info.Printf("Roster export: pushed %d students", len(students))
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/storage/models"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the question could not be answered
	ExitCommandError = 2 // bad flags, config or startup
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that carry no code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maxTextRows bounds the rows printed in text mode.
const maxTextRows = 10

func writeEnvelope(w io.Writer, env *query.Envelope) {
	if !env.Success {
		fmt.Fprintf(w, "%s\n\nError: %s\n", env.Response, env.Error)
		return
	}

	fmt.Fprintf(w, "%s\n\n", env.Response)
	if env.ProcessedQuery != nil {
		fmt.Fprintf(w, "Intent: %s (confidence %.2f)\n", env.ProcessedQuery.Intent, env.ProcessedQuery.Confidence)
	}
	fmt.Fprintf(w, "SQL: %s\n", env.SQLQuery)
	fmt.Fprintf(w, "Rows: %d\n", env.NumResults)

	if len(env.Data) > 0 {
		fmt.Fprintf(w, "\n%s\n", strings.Join(env.Columns, "\t"))
		for i, row := range env.Data {
			if i == maxTextRows {
				fmt.Fprintf(w, "... %d more\n", len(env.Data)-maxTextRows)
				break
			}
			cells := make([]string, len(env.Columns))
			for j, col := range env.Columns {
				cells[j] = formatCell(row[col])
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	}

	if len(env.Suggestions) > 0 {
		fmt.Fprintln(w, "\nYou could also ask:")
		for _, s := range env.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%.3f", x)
	default:
		return fmt.Sprint(x)
	}
}

func writeSummary(w io.Writer, s *query.Summary) {
	db := s.Database
	fmt.Fprintf(w, "Floats: %d\nProfiles: %d\nMeasurements: %d\n", db.TotalFloats, db.TotalProfiles, db.TotalMeasurements)

	b := db.GeographicBounds
	if b.MinLat != nil && b.MaxLat != nil && b.MinLon != nil && b.MaxLon != nil {
		fmt.Fprintf(w, "Latitude: %.2f to %.2f\nLongitude: %.2f to %.2f\n", *b.MinLat, *b.MaxLat, *b.MinLon, *b.MaxLon)
	}
	if r := db.DateRange; r.StartDate != nil && r.EndDate != nil {
		fmt.Fprintf(w, "Dates: %s to %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	}

	writeCounts(w, "Vector store", s.VectorStore)
	writeCounts(w, "Queries", s.Queries)
}

func writeCounts(w io.Writer, title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func writeHistory(w io.Writer, entries []models.QueryLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No questions logged yet.")
		return
	}
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s  %-6s  %6.2fs  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), status, e.ExecutionTime, e.UserQuery)
	}
}

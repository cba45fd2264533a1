// Command seatcheck runs the seat allocator offline against a roster CSV and a
// schedule file, without a database or a running API. It is meant for timetable
// officers to sanity-check room capacity before uploading anything.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seatwise/exam-seating-api/internal/models"
	"github.com/seatwise/exam-seating-api/internal/seating"
)

type planFile struct {
	Subjects []planSubject `json:"subjects"`
	Rooms    []models.Room `json:"rooms"`
}

type planSubject struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Session string `json:"session"`
}

func main() {
	var (
		rosterPath string
		planPath   string
		workers    int
		verbose    bool
	)

	flag.StringVar(&rosterPath, "roster", "", "Path to roster CSV")
	flag.StringVar(&planPath, "plan", filepath.Join("scripts", "seatcheck", "plan.json"), "Path to JSON plan file (subjects and rooms)")
	flag.IntVar(&workers, "workers", 4, "Slot workers")
	flag.BoolVar(&verbose, "verbose", false, "Print every assignment")
	flag.Parse()

	if rosterPath == "" {
		log.Fatal("-roster is required")
	}

	students, err := loadRoster(rosterPath)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}

	schedule, rooms, err := loadPlan(planPath)
	if err != nil {
		log.Fatalf("failed to load plan: %v", err)
	}

	result, err := seating.Allocate(students, schedule, rooms, seating.Options{Workers: workers})
	if err != nil {
		log.Fatalf("allocation failed: %v", err)
	}

	printReport(result, len(students), verbose)

	if len(result.Diagnostics.FailedSlots) > 0 {
		os.Exit(1)
	}
}

func loadRoster(path string) ([]models.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	header := map[string]int{}
	for i, col := range rows[0] {
		key := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(strings.TrimSpace(col)))
		header[key] = i
	}
	for _, required := range []string{"indexnumber", "fullname", "class", "coresubjects", "electivesubjects"} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%s is missing column %q", path, required)
		}
	}

	cell := func(row []string, key string) string {
		idx := header[key]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var students []models.Student
	for _, row := range rows[1:] {
		s := models.Student{
			IndexNumber:      cell(row, "indexnumber"),
			FullName:         cell(row, "fullname"),
			Class:            cell(row, "class"),
			CoreSubjects:     cell(row, "coresubjects"),
			ElectiveSubjects: cell(row, "electivesubjects"),
		}
		if s.IndexNumber == "" && s.FullName == "" {
			continue
		}
		students = append(students, s)
	}
	return students, nil
}

func loadPlan(path string) (map[string]models.ExamSlot, []models.Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var plan planFile
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, nil, err
	}
	if len(plan.Subjects) == 0 {
		return nil, nil, fmt.Errorf("no subjects defined in %s", path)
	}
	if len(plan.Rooms) == 0 {
		return nil, nil, fmt.Errorf("no rooms defined in %s", path)
	}

	schedule := make(map[string]models.ExamSlot, len(plan.Subjects))
	for _, subj := range plan.Subjects {
		session, err := models.ParseSession(subj.Session)
		if err != nil {
			return nil, nil, fmt.Errorf("subject %q: %w", subj.Subject, err)
		}
		if _, exists := schedule[subj.Subject]; exists {
			return nil, nil, fmt.Errorf("subject %q appears twice in %s", subj.Subject, path)
		}
		schedule[subj.Subject] = models.ExamSlot{Date: subj.Date, Session: session}
	}
	return schedule, plan.Rooms, nil
}

func printReport(result *models.AllocationResult, studentCount int, verbose bool) {
	fmt.Println("Seat Allocation Report")
	fmt.Println("======================")
	fmt.Printf("Students: %d | Assignments: %d\n", studentCount, len(result.Assignments))

	keys := make([]string, 0, len(result.Stats))
	for key := range result.Stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		stats := result.Stats[key]
		fmt.Printf("[OK] %s\n", key)
		fmt.Printf("  Seated: %d / %d seats across %d rooms\n", stats.TotalStudents, stats.TotalSeats, stats.RoomsUsed)
	}

	for _, failure := range result.Diagnostics.FailedSlots {
		fmt.Printf("[FULL] %s %s\n", failure.Date, failure.Session)
		fmt.Printf("  Required: %d | Available: %d | Short by: %d\n", failure.Required, failure.Available, failure.Shortfall())
	}

	diag := result.Diagnostics
	if diag.UnscheduledEnrollments > 0 || diag.DuplicateEnrollments > 0 || diag.StudentsWithoutSubjects > 0 {
		fmt.Printf("Dropped: %d unscheduled, %d duplicates, %d students without subjects\n",
			diag.UnscheduledEnrollments, diag.DuplicateEnrollments, diag.StudentsWithoutSubjects)
	}

	if verbose {
		for _, a := range result.Assignments {
			fmt.Printf("  %s %s | %s seat %d | %s %s (%s) | %s\n",
				a.Date, a.Session, a.Room, a.SeatNumber, a.IndexNumber, a.FullName, a.Class, a.Subject)
		}
	}
}

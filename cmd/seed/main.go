package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medoffice/scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	patients, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patients); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, name, email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return ids, nil
}

// seedAppointments books one non-overlapping week of half-hour visits across
// the practice's local business hours.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patients []uuid.UUID) error {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return err
	}

	reasons := []string{
		"Annual physical",
		"Follow-up visit",
		"Flu symptoms",
		"Blood pressure check",
		"Lab results review",
		"Vaccination",
		"New patient consult",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tzName := loc.String()
	weekStart := time.Now().In(loc).AddDate(0, 0, 1)
	total := 0

	for day := 0; day < 7; day++ {
		date := weekStart.AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		for hour := 9; hour < 17; hour++ {
			for _, minute := range []int{0, 30} {
				// Leave roughly half the grid open for demos.
				if gofakeit.Bool() {
					continue
				}

				start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
				end := start.Add(30 * time.Minute)
				patient := patients[gofakeit.Number(0, len(patients)-1)]
				reason := reasons[gofakeit.Number(0, len(reasons)-1)]

				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, patient_id, start_time, end_time, status, reason, timezone, created_at, updated_at)
					VALUES ($1, $2, $3, $4, 'scheduled', $5, $6, now(), now())
				`, uuid.New(), patient, start, end, reason, tzName)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}

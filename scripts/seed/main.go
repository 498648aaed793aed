// Command seed loads a minimal working dataset: one admin, one
// instructor, a handful of students and open sections. Intended for
// local development against an empty database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	email    string
	fullName string
	role     string
}

type seedSection struct {
	courseCode  string
	courseTitle string
	credits     int
	schedule    string
	capacity    int
}

var users = []seedUser{
	{"admin@univ.edu", "Registry Admin", "ADMIN"},
	{"turing@univ.edu", "Alan Turing", "INSTRUCTOR"},
	{"ada@univ.edu", "Ada Lovelace", "STUDENT"},
	{"grace@univ.edu", "Grace Hopper", "STUDENT"},
}

var sections = []seedSection{
	{"CS101", "Introduction to Computing", 4, "Mon/Wed/Fri 10:00-11:30", 30},
	{"CS201", "Data Structures", 4, "Tue/Thu 9:00-10:30", 25},
	{"MATH201", "Calculus II", 3, "Mon/Wed 14:00-15:30", 40},
	{"PHYS101", "Mechanics", 3, "TBA", 35},
}

func main() {
	var (
		dsn      string
		password string
	)
	flag.StringVar(&dsn, "dsn", "host=localhost port=5432 user=postgres password=postgres dbname=univ_registry sslmode=disable", "PostgreSQL DSN")
	flag.StringVar(&password, "password", "changeme123", "Password assigned to every seeded user")
	flag.Parse()

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var instructorID string
	for _, u := range users {
		id := uuid.NewString()
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
			ON CONFLICT (email) DO NOTHING`,
			id, u.email, string(hash), u.fullName, u.role)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		if u.role == "INSTRUCTOR" {
			if err := db.GetContext(ctx, &instructorID, `SELECT id FROM users WHERE email = $1`, u.email); err != nil {
				log.Fatalf("failed to resolve instructor: %v", err)
			}
		}
		fmt.Printf("user %-20s %s\n", u.role, u.email)
	}

	for _, s := range sections {
		_, err := db.ExecContext(ctx, `
			INSERT INTO sections (id, course_code, course_title, credits, instructor_id, schedule_text, capacity, enrolled_count, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 'OPEN', NOW(), NOW())
			ON CONFLICT (course_code) DO NOTHING`,
			uuid.NewString(), s.courseCode, s.courseTitle, s.credits, instructorID, s.schedule, s.capacity)
		if err != nil {
			log.Fatalf("failed to seed section %s: %v", s.courseCode, err)
		}
		fmt.Printf("section %-10s %s\n", s.courseCode, s.schedule)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ('maintenance_mode', 'false', NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
	if err != nil {
		log.Fatalf("failed to seed settings: %v", err)
	}

	fmt.Println("seed complete")
}

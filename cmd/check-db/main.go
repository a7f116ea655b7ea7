// Package main is a diagnostic tool for testing database connectivity and
// inspecting live tenant data. It connects to the database, queries the
// companies and users tables, and prints a summary to stdout. The binary
// exits with a non-zero code on any failure so it can be embedded in health
// checks or CI/CD pipeline steps to gate deployments on a reachable,
// populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("CBZ_DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "corebiz"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=corebiz password=%s dbname=corebiz sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Check companies
	fmt.Println("=== COMPANIES ===")
	rows, err := db.Query("SELECT id, name, plan, status FROM companies ORDER BY id")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name, plan, status string
		if err := rows.Scan(&id, &name, &plan, &status); err != nil {
			log.Printf("Warning: failed to scan company row: %v", err)
			continue
		}
		fmt.Printf("Company: %s (ID: %d, plan: %s, status: %s)\n", name, id, plan, status)
	}

	// Check users
	fmt.Println("\n=== USERS ===")
	rows2, err := db.Query("SELECT id, company_id, email, role, status FROM users ORDER BY company_id, id")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var id, companyID int64
		var email, role, status string
		if err := rows2.Scan(&id, &companyID, &email, &role, &status); err != nil {
			log.Printf("Warning: failed to scan user row: %v", err)
			continue
		}
		fmt.Printf("User: %s (ID: %d, Company ID: %d, role: %s, status: %s)\n", email, id, companyID, role, status)
		count++
	}

	if count == 0 {
		fmt.Println("No users found!")
	}
}

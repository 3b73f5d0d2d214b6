// Command portalctl performs administrative tasks against the portal database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/d-valsamis/student-portal/config"
	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

const usage = `Usage: portalctl <command> [flags]

Commands:
  hash-password <password>              print a bcrypt hash for ADMIN_PASSWORD_HASH
  create-admin -username U -password P  create an admin account
  migrate                               create or update all tables
  seed [-sample]                        bootstrap the admin and optionally demo data
  check-db                              show connectivity and row counts
  list-students                         print every student
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "hash-password":
		return hashPassword(args[1:], out)
	case "create-admin":
		return withStore(func(ctx context.Context, store *database.GORMStore) error {
			return createAdmin(ctx, store, args[1:])
		})
	case "migrate":
		return withStore(func(ctx context.Context, store *database.GORMStore) error {
			if err := store.Init(); err != nil {
				return err
			}
			color.Green("Migrations applied")
			return nil
		})
	case "seed":
		return withStore(func(ctx context.Context, store *database.GORMStore) error {
			return seed(ctx, store, args[1:])
		})
	case "check-db":
		return withStore(func(ctx context.Context, store *database.GORMStore) error {
			return checkDB(ctx, store, out)
		})
	case "list-students":
		return withStore(func(ctx context.Context, store *database.GORMStore) error {
			return listStudents(ctx, store, out)
		})
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return errUsage
	}
}

// withStore connects using the same environment as the server.
func withStore(fn func(ctx context.Context, store *database.GORMStore) error) error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM(env)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(context.Background(), store)
}

func hashPassword(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	if len(args[0]) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

func createAdmin(ctx context.Context, store *database.GORMStore, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	username := fs.String("username", "", "admin username")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || len(*password) < auth.MinPasswordLength {
		return errUsage
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	admin := model.Admin{Username: *username, PasswordHash: hash}
	if err := store.GetDB().WithContext(ctx).Create(&admin).Error; err != nil {
		return database.MapError(err, "")
	}

	color.Green("Admin %q created (id %d)", admin.Username, admin.ID)
	return nil
}

func seed(ctx context.Context, store *database.GORMStore, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	sample := fs.Bool("sample", false, "insert demo subjects, classes and a student")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	seeder := database.NewSeeder(store.GetDB())
	if err := seeder.SeedAdmin(ctx, env.ADMIN_USERNAME, env.ADMIN_PASSWORD_HASH); err != nil {
		return err
	}
	if *sample {
		if err := seeder.SeedSampleData(ctx); err != nil {
			return err
		}
	}

	color.Green("Seeding completed")
	return nil
}

func checkDB(ctx context.Context, store *database.GORMStore, out io.Writer) error {
	if err := store.HealthCheck(ctx); err != nil {
		color.Red("Database unreachable")
		return err
	}
	color.Green("Database reachable")

	db := store.GetDB().WithContext(ctx)
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Table", "Rows"})

	for _, m := range database.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		name := stmt.Schema.Table

		var count int64
		var cell string
		if err := db.Model(m).Count(&count).Error; err != nil {
			cell = color.YellowString("missing")
		} else {
			cell = strconv.FormatInt(count, 10)
		}
		table.Append([]string{name, cell})
	}

	table.Render()
	return nil
}

func listStudents(ctx context.Context, store *database.GORMStore, out io.Writer) error {
	var students []model.Student
	if err := store.GetDB().WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return err
	}

	if len(students) == 0 {
		color.Yellow("No students found")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Username", "Name", "Email", "Created"})
	for _, s := range students {
		table.Append([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Username,
			s.Name,
			s.Email,
			s.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()
	return nil
}

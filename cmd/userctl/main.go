package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/tobiaskarsten/linkstash/app/models"
	"github.com/tobiaskarsten/linkstash/app/repository"
	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"github.com/tobiaskarsten/linkstash/internal/pkg/env"
)

// userctl provisions and manages user accounts from the command line. There
// is no self-service registration surface; accounts are created here and
// authenticate against the API with issued keys.
func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	database.SetupDatabase()
	repo := repository.GetGlobalFactory().GetUserRepository()

	switch os.Args[1] {
	case "create":
		if len(os.Args) < 5 {
			log.Fatalf("usage: userctl create <name> <email> <password>")
		}
		user, err := models.CreateUser(os.Args[2], os.Args[3], os.Args[4])
		if err != nil {
			log.Fatalf("failed to create user: %v", err)
		}
		if err := user.GenerateActivationToken(); err != nil {
			log.Fatalf("failed to generate activation token: %v", err)
		}
		if err := repo.Create(user); err != nil {
			log.Fatalf("failed to save user: %v", err)
		}
		log.Printf("created user %d (%s), status %s", user.ID, user.Email, user.Status)
		log.Printf("activation token: %s", user.ActivationToken)

	case "activate":
		if len(os.Args) < 4 {
			log.Fatalf("usage: userctl activate <email> <token>")
		}
		user, err := repo.GetByEmail(os.Args[2])
		if err != nil {
			log.Fatalf("failed to load user: %v", err)
		}
		if user.ActivationToken == "" || user.ActivationToken != os.Args[3] {
			log.Fatalf("activation token does not match")
		}
		user.Status = models.STATUS_ACTIVE
		user.ActivationToken = ""
		if err := repo.Update(user); err != nil {
			log.Fatalf("failed to activate user: %v", err)
		}
		log.Printf("user %d (%s) activated", user.ID, user.Email)

	case "apikey":
		if len(os.Args) < 3 {
			log.Fatalf("usage: userctl apikey <email>")
		}
		user, err := repo.GetByEmail(os.Args[2])
		if err != nil {
			log.Fatalf("failed to load user: %v", err)
		}
		settings, err := models.GetOrCreateUserSettings(database.GetDB(), user.ID)
		if err != nil {
			log.Fatalf("failed to load user settings: %v", err)
		}
		key, err := settings.IssueAPIKey()
		if err != nil {
			log.Fatalf("failed to issue api key: %v", err)
		}
		if err := database.GetDB().Save(settings).Error; err != nil {
			log.Fatalf("failed to save api key: %v", err)
		}
		// The raw key is only recoverable here; the database keeps the hash.
		log.Printf("api key for user %d (%s): %s", user.ID, user.Email, key)

	case "passwd":
		if len(os.Args) < 4 {
			log.Fatalf("usage: userctl passwd <email> <new-password>")
		}
		user, err := repo.GetByEmail(os.Args[2])
		if err != nil {
			log.Fatalf("failed to load user: %v", err)
		}
		hash, err := models.HashPassword(os.Args[3])
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		user.Password = hash
		if err := repo.Update(user); err != nil {
			log.Fatalf("failed to update password: %v", err)
		}
		log.Printf("password updated for user %d (%s)", user.ID, user.Email)

	case "show":
		if len(os.Args) < 3 {
			log.Fatalf("usage: userctl show <id>")
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("invalid user id: %v", err)
		}
		user, err := repo.GetByID(uint(id))
		if err != nil {
			log.Fatalf("failed to load user: %v", err)
		}
		settings, err := models.GetOrCreateUserSettings(database.GetDB(), user.ID)
		if err != nil {
			log.Fatalf("failed to load user settings: %v", err)
		}
		log.Printf("user %d: %s <%s>, role %s, status %s, plan %s, api key: %v",
			user.ID, user.Name, user.Email, user.Role, user.Status, settings.Plan, settings.HasActiveAPIKey())

	case "count":
		total, err := repo.Count()
		if err != nil {
			log.Fatalf("failed to count users: %v", err)
		}
		log.Printf("%d users", total)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: go run cmd/userctl/main.go [command]")
	fmt.Println("available commands:")
	fmt.Println("  create <name> <email> <password> - create an inactive account, print its activation token")
	fmt.Println("  activate <email> <token>         - activate an account")
	fmt.Println("  apikey <email>                   - issue (or rotate) the account's API key")
	fmt.Println("  passwd <email> <new-password>    - set a new password")
	fmt.Println("  show <id>                        - print account details")
	fmt.Println("  count                            - print the number of accounts")
}

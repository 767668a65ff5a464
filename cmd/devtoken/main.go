// Command devtoken mints a bearer token for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yungbote/coursehall-backend/internal/app"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "user id (sub claim)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", "student", "role: student, teacher or admin")
	courses := flag.String("courses", "", "comma separated enrolled course ids")
	flag.Parse()

	log := logger.Nop()
	cfg := app.LoadConfig(log)
	auth := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL)

	var ids []string
	for _, c := range strings.Split(*courses, ",") {
		if c = strings.TrimSpace(c); c != "" {
			ids = append(ids, c)
		}
	}
	tok, err := auth.IssueToken(services.Identity{UserID: *user, DisplayName: *name, Role: *role, CourseIDs: ids})
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

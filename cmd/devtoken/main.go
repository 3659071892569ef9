// Command devtoken mints an access token signed with the local JWT settings so
// the API can be exercised without the identity provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/creditpool/creditpool-backend/pkg/auth"
	"github.com/creditpool/creditpool-backend/pkg/config"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "devtoken"})
	_ = godotenv.Load()

	userFlag := flag.String("user", "", "user id (random when empty)")
	roleFlag := flag.String("role", string(enums.RoleUser), "role claim: user|admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run with CREDITPOOL_APP_ENV=prod")
		os.Exit(1)
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.Role(*roleFlag),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user_id=%s role=%s\n", userID, *roleFlag)
	fmt.Println(token)
}

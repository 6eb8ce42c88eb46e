package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sessionapp/apiv1/dbhelper"
	"github.com/sessionapp/apiv1/middlewares"
	"github.com/sessionapp/apiv1/routes"
	"github.com/sessionapp/apiv1/utils"
)

func main() {
	// Setting up environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}
	// Setting up logs
	file, err := os.OpenFile("logs.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatal(err)
	}
	log.SetOutput(file)

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Setting up database
	db, err := dbhelper.OpenDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := dbhelper.InitDB(db); err != nil {
		log.Fatal(err)
	}

	users := dbhelper.NewUserStore(db)
	ledger := dbhelper.NewRevocationLedger(db)
	issuer := utils.NewTokenIssuer(cfg)
	otp := utils.NewOtpManager(cfg.OtpCodeDuration, cfg.OtpMaxAttempts)
	mailer := utils.NewMailer(cfg)
	verifier := middlewares.NewSessionVerifier(issuer, ledger)

	api := &routes.API{
		Users:    users,
		Otp:      otp,
		Issuer:   issuer,
		Ledger:   ledger,
		Mailer:   mailer,
		Verifier: verifier,
	}

	// Revocation records for tokens past their natural expiry can never
	// matter again; sweep them out periodically.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := ledger.PruneExpired(time.Now()); err != nil {
				log.Println("error pruning revocation ledger:", err)
			} else if n > 0 {
				log.Printf("pruned %d expired revocation records", n)
			}
		}
	}()

	// Opening the webserver
	r := mux.NewRouter()
	r.StrictSlash(true)
	routes.CreateRoutes(r, api)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/lironamy/wedding-us-sub002/internal/config"
	"github.com/lironamy/wedding-us-sub002/internal/db"
	"github.com/lironamy/wedding-us-sub002/internal/gateway"
	"github.com/lironamy/wedding-us-sub002/internal/handler"
	"github.com/lironamy/wedding-us-sub002/internal/repository"
	"github.com/lironamy/wedding-us-sub002/internal/schedule"
	"github.com/lironamy/wedding-us-sub002/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	conn, err := db.Open(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("connected to database")

	batchRepo := &repository.BatchRepository{DB: conn}
	recordRepo := &repository.RecordRepository{DB: conn}
	eventRepo := &repository.EventRepository{DB: conn}
	guestRepo := &repository.GuestRepository{DB: conn}

	// The gateway client is built once here and injected everywhere.
	gatewayClient := gateway.NewTwilioClient(
		cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioBaseURL)
	if err := gatewayClient.Configured(); err != nil {
		// Not fatal at boot: the operator API and webhook still work,
		// each dispatch run fails its batches with this error instead.
		log.Println("warning:", err)
	}

	sender := service.NewBatchSender(gatewayClient, recordRepo, batchRepo, cfg.SendDelay, cfg.RSVPBaseURL)

	orchestrator := &service.Orchestrator{
		Batches:    batchRepo,
		Events:     eventRepo,
		Guests:     guestRepo,
		Sender:     sender,
		Gateway:    gatewayClient,
		BatchLimit: cfg.DispatchBatchLimit,
	}

	reconciler := &service.Reconciler{
		Records: recordRepo,
		Batches: batchRepo,
	}

	batchService := &service.BatchService{
		Batches:    batchRepo,
		Records:    recordRepo,
		Events:     eventRepo,
		Guests:     guestRepo,
		Calculator: schedule.NewCalculator(schedule.DefaultRules()),
	}

	webhookHandler := &handler.WebhookHandler{Reconciler: reconciler}
	cronHandler := &handler.CronHandler{Orchestrator: orchestrator, Secret: cfg.CronSecret}
	batchHandler := &handler.BatchHandler{Service: batchService, RSVPBaseURL: cfg.RSVPBaseURL}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})

	// Gateway callback
	r.Post("/webhooks/delivery", webhookHandler.DeliveryStatus)

	// Periodic trigger (GET) and explicit manual trigger (POST)
	r.Get("/cron/dispatch", cronHandler.Dispatch)
	r.Post("/cron/dispatch", cronHandler.Dispatch)

	// Operator API
	r.Get("/events/{eventID}/batches", batchHandler.ListForEvent)
	r.Post("/events/{eventID}/batches", batchHandler.CreateManual)
	r.Post("/events/{eventID}/batches/generate", batchHandler.GenerateDefaults)
	r.Post("/events/{eventID}/preview", batchHandler.Preview)
	r.Get("/batches/{batchID}", batchHandler.GetBatch)
	r.Get("/batches/{batchID}/recipients", batchHandler.ListRecipients)
	r.Post("/batches/{batchID}/cancel", batchHandler.Cancel)
	r.Get("/records/stale", batchHandler.ListStaleRecords)

	log.Println("server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

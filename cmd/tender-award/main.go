package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tender_award/internal/access"
	"tender_award/internal/http-server/handlers/api/evaluator"
	"tender_award/internal/http-server/handlers/api/offer"
	"tender_award/internal/http-server/handlers/api/ping"
	"tender_award/internal/http-server/handlers/api/tender"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := godotenv.Load()
	if err != nil {
		log.Error("Failed to load .env", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
	}

	authority := os.Getenv("AUTHORITY_USERNAME")
	acl, err := access.New(authority)
	if err != nil {
		log.Error("AUTHORITY_USERNAME must be set", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
		os.Exit(1)
	}

	storage := memory.New(acl)

	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	router := chi.NewRouter()

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping.New(log))
		r.Route("/tenders", func(r chi.Router) {
			r.Post("/new", tender.NewPostTender(log, storage))
			r.Get("/{tenderId}", tender.NewGetTender(log, storage))
			r.Post("/{tenderId}/close", tender.NewCloseOfferPeriod(log, storage))
			r.Post("/{tenderId}/evaluated", tender.NewMarkAsEvaluated(log, storage))
			r.Post("/{tenderId}/winner", tender.NewCalculateWinner(log, storage))
			r.Get("/{tenderId}/participants", tender.NewGetParticipants(log, storage))
		})
		r.Route("/offers", func(r chi.Router) {
			r.Post("/new", offer.NewPostOffer(log, storage))
			r.Get("/{tenderId}/list", offer.NewGetOffers(log, storage))
			r.Get("/{tenderId}/{provider}", offer.NewGetOffer(log, storage))
			r.Put("/{tenderId}/{provider}/evaluate", offer.NewPutEvaluation(log, storage))
		})
		r.Route("/evaluators", func(r chi.Router) {
			r.Post("/new", evaluator.NewPostEvaluator(log, storage))
			r.Get("/{username}", evaluator.NewGetEvaluator(log, storage))
			r.Delete("/{username}", evaluator.NewDeleteEvaluator(log, storage))
		})
		r.Get("/authority", evaluator.NewGetAuthority(log, storage))
		r.Put("/authority", evaluator.NewPutAuthority(log, storage))
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Error("failed to start the server")
		}
	}()

	log.Info("starting server", slog.String("address", addr))
	<-done
	log.Info("server stopped")
}

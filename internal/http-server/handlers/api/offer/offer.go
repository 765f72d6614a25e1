package offer

import (
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"tender_award/internal/lib/errors"
	"tender_award/internal/models/offer"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type OfferSaver interface {
	SaveOffer(caller string, req offer.OfferRequest) (offer.OfferResponse, error)
}

type OfferGetter interface {
	ReadOffer(tenderID int64, provider string) (offer.OfferResponse, error)
}

type OffersReader interface {
	ReadOffers(tenderID int64) (offer.OfferListResponse, error)
}

type OfferEvaluator interface {
	EvaluateOffer(caller string, tenderID int64, provider string, qualityScore int64) (offer.OfferResponse, error)
}

func NewPostOffer(log *slog.Logger, offerSaver OfferSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		var req offer.OfferRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err := decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body")
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		err = validate.Struct(req)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("One of the fields is missing or out of range"))
			return
		}

		resp, err := offerSaver.SaveOffer(username, req)
		if err != nil {
			log.Error("Failed to save offer", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetOffer(log *slog.Logger, offerGetter OfferGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := parseTenderID(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The tender id is invalid"))
			return
		}

		provider := chi.URLParam(r, "provider")
		if provider == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The provider is empty"))
			return
		}

		resp, err := offerGetter.ReadOffer(tenderID, provider)
		if err != nil {
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetOffers(log *slog.Logger, offersReader OffersReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := parseTenderID(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The tender id is invalid"))
			return
		}

		resp, err := offersReader.ReadOffers(tenderID)
		if err != nil {
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewPutEvaluation(log *slog.Logger, evaluator OfferEvaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		tenderID, err := parseTenderID(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The tender id is invalid"))
			return
		}

		provider := chi.URLParam(r, "provider")
		if provider == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The provider is empty"))
			return
		}

		var req offer.EvaluationRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err = decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body")
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		err = validate.Struct(req)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The quality score is missing"))
			return
		}

		resp, err := evaluator.EvaluateOffer(username, tenderID, provider, *req.QualityScore)
		if err != nil {
			log.Error("Failed to evaluate offer", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func parseTenderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "tenderId"), 10, 64)
}

func renderStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case serrors.Is(err, memory.ErrInvalidInput):
		render.Status(r, 400)
	case serrors.Is(err, memory.ErrUnauthorized):
		render.Status(r, 403)
	case serrors.Is(err, memory.ErrNotFound):
		render.Status(r, 404)
	case serrors.Is(err, memory.ErrInvalidState):
		render.Status(r, 409)
	case serrors.Is(err, memory.ErrAlreadyExists):
		render.Status(r, 409)
	case serrors.Is(err, memory.ErrDeadlineViolation):
		render.Status(r, 422)
	default:
		render.Status(r, 400)
	}
	render.JSON(w, r, errors.NewHttpError(err.Error()))
}

package tender

import (
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"tender_award/internal/lib/errors"
	"tender_award/internal/models/tender"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type TenderSaver interface {
	SaveTender(caller string, req tender.TenderRequest) (tender.TenderResponse, error)
}

type TenderGetter interface {
	ReadTender(tenderID int64) (tender.TenderResponse, error)
}

type OfferPeriodCloser interface {
	CloseOfferPeriod(caller string, tenderID int64) (tender.TenderResponse, error)
}

type EvaluatedMarker interface {
	MarkAsEvaluated(caller string, tenderID int64) (tender.TenderResponse, error)
}

type WinnerSelector interface {
	CalculateWinner(caller string, tenderID int64) (tender.TenderResponse, error)
}

type ParticipantsReader interface {
	ReadParticipants(tenderID int64) ([]string, error)
}

func NewPostTender(log *slog.Logger, tenderSaver TenderSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		var req tender.TenderRequest

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

		if req.WeightPrice+req.WeightQuality != 100 {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The weights must sum to 100"))
			return
		}

		resp, err := tenderSaver.SaveTender(username, req)
		if err != nil {
			log.Error("Failed to save tender", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetTender(log *slog.Logger, tenderGetter TenderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := parseTenderID(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The tender id is invalid"))
			return
		}

		resp, err := tenderGetter.ReadTender(tenderID)
		if err != nil {
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewCloseOfferPeriod(log *slog.Logger, closer OfferPeriodCloser) http.HandlerFunc {
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

		resp, err := closer.CloseOfferPeriod(username, tenderID)
		if err != nil {
			log.Error("Failed to close offer period", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewMarkAsEvaluated(log *slog.Logger, marker EvaluatedMarker) http.HandlerFunc {
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

		resp, err := marker.MarkAsEvaluated(username, tenderID)
		if err != nil {
			log.Error("Failed to mark tender as evaluated", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewCalculateWinner(log *slog.Logger, selector WinnerSelector) http.HandlerFunc {
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

		resp, err := selector.CalculateWinner(username, tenderID)
		if err != nil {
			log.Error("Failed to calculate winner", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetParticipants(log *slog.Logger, reader ParticipantsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := parseTenderID(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The tender id is invalid"))
			return
		}

		resp, err := reader.ReadParticipants(tenderID)
		if err != nil {
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

package evaluator

import (
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"

	"tender_award/internal/lib/errors"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type IdentityRequest struct {
	Username string `json:"username" validate:"required"`
}

type EvaluatorResponse struct {
	Username    string `json:"username"`
	IsEvaluator bool   `json:"isEvaluator"`
}

type AuthorityResponse struct {
	Authority string `json:"authority"`
}

type EvaluatorAdder interface {
	AddEvaluator(caller, addr string) error
}

type EvaluatorRemover interface {
	RemoveEvaluator(caller, addr string) error
}

type EvaluatorChecker interface {
	IsEvaluator(addr string) bool
}

type AuthorityHolder interface {
	CurrentAuthority() string
	TransferAuthority(caller, newAuthority string) error
}

func NewPostEvaluator(log *slog.Logger, adder EvaluatorAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		var req IdentityRequest

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
			render.JSON(w, r, errors.NewHttpError("The evaluator username is missing"))
			return
		}

		err = adder.AddEvaluator(username, req.Username)
		if err != nil {
			log.Error("Failed to add evaluator", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, EvaluatorResponse{Username: req.Username, IsEvaluator: true})
	}
}

func NewDeleteEvaluator(log *slog.Logger, remover EvaluatorRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		addr := chi.URLParam(r, "username")
		if addr == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The evaluator username is empty"))
			return
		}

		err := remover.RemoveEvaluator(username, addr)
		if err != nil {
			log.Error("Failed to remove evaluator", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, EvaluatorResponse{Username: addr, IsEvaluator: false})
	}
}

func NewGetEvaluator(log *slog.Logger, checker EvaluatorChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := chi.URLParam(r, "username")
		if addr == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The evaluator username is empty"))
			return
		}

		render.JSON(w, r, EvaluatorResponse{Username: addr, IsEvaluator: checker.IsEvaluator(addr)})
	}
}

func NewPutAuthority(log *slog.Logger, holder AuthorityHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("The Username is empty"))
			return
		}

		var req IdentityRequest

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
			render.JSON(w, r, errors.NewHttpError("The new authority username is missing"))
			return
		}

		err = holder.TransferAuthority(username, req.Username)
		if err != nil {
			log.Error("Failed to transfer authority", slog.Attr{Key: "error", Value: slog.StringValue(err.Error())})
			renderStorageError(w, r, err)
			return
		}

		render.JSON(w, r, AuthorityResponse{Authority: holder.CurrentAuthority()})
	}
}

func NewGetAuthority(log *slog.Logger, holder AuthorityHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, AuthorityResponse{Authority: holder.CurrentAuthority()})
	}
}

func renderStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case serrors.Is(err, memory.ErrInvalidInput):
		render.Status(r, 400)
	case serrors.Is(err, memory.ErrUnauthorized):
		render.Status(r, 403)
	case serrors.Is(err, memory.ErrNotFound):
		render.Status(r, 404)
	case serrors.Is(err, memory.ErrAlreadyExists):
		render.Status(r, 409)
	default:
		render.Status(r, 400)
	}
	render.JSON(w, r, errors.NewHttpError(err.Error()))
}

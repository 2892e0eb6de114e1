package wizard

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/api/validators"
	"github.com/angelmondragon/freightquote-backend/internal/draft"
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/internal/validation"
	"github.com/angelmondragon/freightquote-backend/internal/wizard"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/staging"
)

type sessionCall func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error)

// sessionHandler resolves the rep and {id} and writes the resulting snapshot.
func sessionHandler(logg *logger.Logger, call sessionCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sess, err := call(r, rep, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

func target(r *http.Request) (wizard.Rep, string, error) {
	rep, err := repFromContext(r.Context())
	if err != nil {
		return wizard.Rep{}, "", err
	}
	id, err := validators.PathParam(r, "id")
	if err != nil {
		return wizard.Rep{}, "", err
	}
	return rep, id, nil
}

// Start opens a session on the client selection page.
func Start(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := repFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Start(r.Context(), rep)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

func Get(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		return svc.Get(r.Context(), rep, id)
	})
}

// Abandon drops the session and its staged files.
func Abandon(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Abandon(r.Context(), rep, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func SelectClient(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SelectClient(r.Context(), rep, id,
			validators.SanitizeString(body.Client, 200),
			validators.SanitizeString(body.ClientReference, 200))
	})
}

func SelectService(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		var body serviceTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SelectService(r.Context(), rep, id, body.Service)
	})
}

// ReplaceDraft swaps the draft answers wholesale; the service applies the allowlist.
func ReplaceDraft(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		var body quotation.ServiceDetails
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.ReplaceDraft(r.Context(), rep, id, body)
	})
}

type rowCall func(r *http.Request, rep wizard.Rep, id string, c draft.Collection) (*wizard.Session, int, error)

func rowHandler(logg *logger.Logger, status int, call rowCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		raw, err := validators.PathParam(r, "collection")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		c, err := draft.ParseCollection(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown collection"))
			return
		}
		sess, index, err := call(r, rep, id, c)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, rowResponse{Index: index, Session: sess})
	}
}

func AppendRow(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return rowHandler(logg, http.StatusCreated, func(r *http.Request, rep wizard.Rep, id string, c draft.Collection) (*wizard.Session, int, error) {
		return svc.AppendRow(r.Context(), rep, id, c)
	})
}

func RemoveRow(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return rowHandler(logg, http.StatusOK, func(r *http.Request, rep wizard.Rep, id string, c draft.Collection) (*wizard.Session, int, error) {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return nil, 0, err
		}
		sess, err := svc.RemoveRow(r.Context(), rep, id, c, index)
		return sess, index, err
	})
}

func DuplicateRow(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return rowHandler(logg, http.StatusCreated, func(r *http.Request, rep wizard.Rep, id string, c draft.Collection) (*wizard.Session, int, error) {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return nil, 0, err
		}
		return svc.DuplicateRow(r.Context(), rep, id, c, index)
	})
}

// StageFiles replaces the attachments of {field} with the multipart "files" parts.
// An empty upload set clears the field. Bodies over maxUploadMB are rejected.
func StageFiles(svc wizard.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultUploadMB
	}
	limit := int64(maxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		field, err := validators.PathParam(r, "field")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "upload too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		uploads, closeAll, err := openUploads(r.MultipartForm.File[uploadFormField])
		defer closeAll()
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading upload"))
			return
		}

		names, err := svc.StageFiles(ctx, rep, id, fields.Key(field), uploads)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		responses.WriteSuccess(w, filesResponse{Field: field, Files: names})
	}
}

func openUploads(headers []*multipart.FileHeader) ([]staging.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]staging.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		uploads = append(uploads, staging.Upload{Name: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// Fields lists the field groups for the draft as currently answered.
func Fields(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groups, err := svc.Fields(r.Context(), rep, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if groups == nil {
			groups = []fields.Group{}
		}
		responses.WriteSuccess(w, groups)
	}
}

// Validate reports the draft's errors without saving it.
func Validate(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		errs, err := svc.Validate(r.Context(), rep, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if errs == nil {
			errs = validation.Errors{}
		}
		responses.WriteSuccess(w, validationResponse{Valid: len(errs) == 0, Errors: errs})
	}
}

func SaveService(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		return svc.SaveService(r.Context(), rep, id)
	})
}

func EditService(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return nil, err
		}
		return svc.EditService(r.Context(), rep, id, index)
	})
}

func RemoveService(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return nil, err
		}
		return svc.RemoveService(r.Context(), rep, id, index)
	})
}

func AddAnother(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		return svc.AddAnother(r.Context(), rep, id)
	})
}

func Back(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, func(r *http.Request, rep wizard.Rep, id string) (*wizard.Session, error) {
		return svc.Back(r.Context(), rep, id)
	})
}

// Finalize submits the ledger. Replays are handled by the idempotency middleware.
func Finalize(svc wizard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Finalize(r.Context(), rep, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

package pages

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// FormField is one input of pages/resource_form.html.
type FormField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
	Options  []Option
}

// FormPageData feeds pages/resource_form.html.
type FormPageData struct {
	Heading        string
	Error          string
	Action         string
	IdempotencyKey string
	Fields         []FormField
	Submit         string
}

// formSpec describes one create form posted to a backend collection.
type formSpec struct {
	Resource Resource
	Heading  string
	Submit   string
	Variant  shell.Variant
}

func (s formSpec) page(status int, data FormPageData) shell.Page {
	data.Heading = s.Heading
	data.Action = s.Resource.NewPath
	data.Submit = s.Submit
	return shell.Page{Title: s.Heading, Template: "pages/resource_form.html", Data: data, Status: status}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldErrors maps validator failures onto form field names.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "This value is too long."
	case "alphanum":
		return "Use letters and digits only."
	case "datetime":
		return "Enter a date as YYYY-MM-DD."
	case "oneof":
		return "Choose one of the listed options."
	default:
		return "This value is not valid."
	}
}

func applyErrors(fields []FormField, errs map[string]string) []FormField {
	for i := range fields {
		if msg, ok := errs[fields[i].Name]; ok {
			fields[i].Error = msg
		}
	}
	return fields
}

func newIdempotencyKey() string {
	return uuid.NewString()
}

// submit posts payload once per idempotency key and redirects on success.
// Failures render the form again with the submitted values.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, spec formSpec, key string, fields []FormField, payload any) {
	ctx := r.Context()
	module := spec.Resource.Name
	sess := shared.SessionFromContext(ctx)

	if err := h.idem.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "info", Message: shared.UserSafeMessage(err)})
			}
			http.Redirect(w, r, spec.Resource.ListPath, http.StatusSeeOther)
			return
		}
		h.logger.Error("idempotency check", slog.String("module", module), slog.Any("error", err))
		h.composer.Render(w, r, spec.Variant, spec.page(http.StatusInternalServerError, FormPageData{
			Error: shared.UserSafeMessage(err), IdempotencyKey: key, Fields: fields,
		}))
		return
	}

	rec, err := h.backend.Create(ctx, h.token(r), module, payload)
	if err != nil {
		if delErr := h.idem.Delete(ctx, key, module); delErr != nil {
			h.logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", delErr))
		}
		if h.sessionRejected(w, r, err) {
			return
		}
		var verr *backend.ValidationError
		if errors.As(err, &verr) {
			msg := verr.Message
			if msg == "" {
				msg = "Please correct the highlighted fields."
			}
			h.composer.Render(w, r, spec.Variant, spec.page(http.StatusUnprocessableEntity, FormPageData{
				Error: msg, IdempotencyKey: key, Fields: applyErrors(fields, verr.Fields),
			}))
			return
		}
		h.logger.Warn("create record", slog.String("resource", module), slog.Any("error", err))
		h.composer.Render(w, r, spec.Variant, spec.page(http.StatusBadGateway, FormPageData{
			Error: shared.UserSafeMessage(err), IdempotencyKey: key, Fields: fields,
		}))
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: singular(spec.Resource.Heading) + " created."})
	}
	target := spec.Resource.DetailHref(RecordID(rec))
	if target == "" {
		target = spec.Resource.ListPath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

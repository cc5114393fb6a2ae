package pages

import (
	"net/http"
	"strings"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
)

// SupportQueryData feeds pages/support_query.html.
type SupportQueryData struct {
	Query    string
	Searched bool
	Results  Table
}

// supportSales is the read-only sales view the support desk searches. Rows
// carry no links: sale pages belong to the admin shell.
var supportSales = Resource{
	Name: "sales",
	Columns: []Column{
		{Field: "number", Label: "Number"},
		{Field: "customer_name", Label: "Customer"},
		{Field: "vehicle_plate", Label: "Plate"},
		{Field: "package_name", Label: "Package"},
		{Field: "end_date", Label: "Covered until", Kind: KindDate},
		{Field: "status", Label: "Status"},
	},
}

var fileForm = formSpec{Resource: SupportFiles, Heading: "Create file", Submit: "Open file", Variant: shell.VariantSupport}

var priorities = []Option{{Value: "normal", Label: "Normal"}, {Value: "high", Label: "High"}, {Value: "urgent", Label: "Urgent"}}

type fileInput struct {
	Plate            string `form:"plate" validate:"required,alphanum,max=10"`
	CustomerDocument string `form:"customer_document" validate:"max=32"`
	Priority         string `form:"priority" validate:"required,oneof=normal high urgent"`
	Description      string `form:"description" validate:"required,max=2000"`
}

type filePayload struct {
	Plate            string `json:"plate"`
	CustomerDocument string `json:"customer_document,omitempty"`
	Priority         string `json:"priority"`
	Description      string `json:"description"`
}

func fileFields(in fileInput) []FormField {
	return []FormField{
		{Name: "plate", Label: "Vehicle plate", Type: "text", Value: in.Plate, Required: true},
		{Name: "customer_document", Label: "Customer document", Type: "text", Value: in.CustomerDocument},
		{Name: "priority", Label: "Priority", Type: "select", Value: in.Priority, Required: true, Options: priorities},
		{Name: "description", Label: "What happened", Type: "textarea", Value: in.Description, Required: true},
	}
}

func (h *Handler) supportQuery(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	data := SupportQueryData{Query: q}
	var err error
	if q != "" {
		var result backend.ListResult
		result, err = h.backend.List(r.Context(), h.token(r), supportSales.Name, backend.ListQuery{Page: 1, PerPage: h.perPage, Search: q})
		if h.sessionRejected(w, r, err) {
			return
		}
		data.Searched = true
		data.Results = BuildTable(supportSales, result.Items)
	}
	h.composer.Render(w, r, shell.VariantSupport, shell.Page{Title: "Sales query", Template: "pages/support_query.html", Data: data, Err: err})
}

func (h *Handler) newFile(w http.ResponseWriter, r *http.Request) {
	h.composer.Render(w, r, fileForm.Variant, fileForm.page(http.StatusOK, FormPageData{
		IdempotencyKey: newIdempotencyKey(),
		Fields:         fileFields(fileInput{Priority: "normal"}),
	}))
}

func (h *Handler) createFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := fileInput{
		Plate:            strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r.PostFormValue("plate")), " ", "")),
		CustomerDocument: strings.TrimSpace(r.PostFormValue("customer_document")),
		Priority:         r.PostFormValue("priority"),
		Description:      strings.TrimSpace(r.PostFormValue("description")),
	}
	key := r.PostFormValue(shared.IdempotencyFormField)
	if key == "" {
		key = newIdempotencyKey()
	}
	fields := fileFields(in)
	if errs := fieldErrors(h.validator.Struct(in)); len(errs) > 0 {
		h.composer.Render(w, r, fileForm.Variant, fileForm.page(http.StatusBadRequest, FormPageData{
			Error:          "Please correct the highlighted fields.",
			IdempotencyKey: key,
			Fields:         applyErrors(fields, errs),
		}))
		return
	}
	h.submit(w, r, fileForm, key, fields, filePayload(in))
}

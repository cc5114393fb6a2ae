package pages

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
)

var saleForm = formSpec{Resource: Sales, Heading: "New sale", Submit: "Register sale", Variant: shell.VariantAdmin}

type saleInput struct {
	CustomerDocument string `form:"customer_document" validate:"required,max=32"`
	VehiclePlate     string `form:"vehicle_plate" validate:"required,alphanum,max=10"`
	PackageID        string `form:"package_id" validate:"required"`
	StartDate        string `form:"start_date" validate:"required,datetime=2006-01-02"`
	Price            string `form:"price" validate:"required"`
}

type salePayload struct {
	CustomerDocument string          `json:"customer_document"`
	VehiclePlate     string          `json:"vehicle_plate"`
	PackageID        string          `json:"package_id"`
	StartDate        string          `json:"start_date"`
	Price            decimal.Decimal `json:"price"`
}

func saleFields(in saleInput, packages []Option) []FormField {
	return []FormField{
		{Name: "customer_document", Label: "Customer document", Type: "text", Value: in.CustomerDocument, Required: true},
		{Name: "vehicle_plate", Label: "Vehicle plate", Type: "text", Value: in.VehiclePlate, Required: true},
		{Name: "package_id", Label: "Package", Type: "select", Value: in.PackageID, Required: true, Options: packages},
		{Name: "start_date", Label: "Coverage start", Type: "date", Value: in.StartDate, Required: true},
		{Name: "price", Label: "Price", Type: "text", Value: in.Price, Required: true},
	}
}

func (h *Handler) packageOptions(r *http.Request) ([]Option, error) {
	result, err := h.backend.List(r.Context(), h.token(r), Packages.Name, backend.ListQuery{Page: 1, PerPage: 100})
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(result.Items)+1)
	options = append(options, Option{Value: "", Label: "Choose a package"})
	for _, rec := range result.Items {
		options = append(options, Option{Value: RecordID(rec), Label: FormatValue(rec["name"], KindText)})
	}
	return options, nil
}

func (h *Handler) newSale(w http.ResponseWriter, r *http.Request) {
	options, err := h.packageOptions(r)
	if h.sessionRejected(w, r, err) {
		return
	}
	page := saleForm.page(http.StatusOK, FormPageData{
		IdempotencyKey: newIdempotencyKey(),
		Fields:         saleFields(saleInput{}, options),
	})
	page.Err = err
	h.composer.Render(w, r, saleForm.Variant, page)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := saleInput{
		CustomerDocument: strings.TrimSpace(r.PostFormValue("customer_document")),
		VehiclePlate:     strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r.PostFormValue("vehicle_plate")), " ", "")),
		PackageID:        strings.TrimSpace(r.PostFormValue("package_id")),
		StartDate:        strings.TrimSpace(r.PostFormValue("start_date")),
		Price:            strings.TrimSpace(r.PostFormValue("price")),
	}
	key := r.PostFormValue(shared.IdempotencyFormField)

	options, err := h.packageOptions(r)
	if h.sessionRejected(w, r, err) {
		return
	}
	if err != nil {
		page := saleForm.page(http.StatusBadGateway, FormPageData{})
		page.Err = err
		h.composer.Render(w, r, saleForm.Variant, page)
		return
	}

	errs := fieldErrors(h.validator.Struct(in))
	price, perr := decimal.NewFromString(in.Price)
	if _, bad := errs["price"]; !bad && (perr != nil || !price.IsPositive()) {
		errs["price"] = "Enter a positive amount, e.g. 129.90."
	}
	if key == "" {
		key = newIdempotencyKey()
	}
	fields := saleFields(in, options)
	if len(errs) > 0 {
		h.composer.Render(w, r, saleForm.Variant, saleForm.page(http.StatusBadRequest, FormPageData{
			Error:          "Please correct the highlighted fields.",
			IdempotencyKey: key,
			Fields:         applyErrors(fields, errs),
		}))
		return
	}

	h.submit(w, r, saleForm, key, fields, salePayload{
		CustomerDocument: in.CustomerDocument,
		VehiclePlate:     in.VehiclePlate,
		PackageID:        in.PackageID,
		StartDate:        in.StartDate,
		Price:            price.Round(2),
	})
}

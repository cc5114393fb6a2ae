package pages

import "github.com/roadassist/portal/internal/routes"

// ColumnKind selects how a record field is formatted in a table cell.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindMoney
	KindDate
	KindNumber
	KindBool
)

// Column maps a backend record field onto a table column.
type Column struct {
	Field string
	Label string
	Kind  ColumnKind
}

// Numeric reports whether the column is right-aligned.
func (c Column) Numeric() bool {
	return c.Kind == KindMoney || c.Kind == KindNumber
}

// Resource describes one backend collection shown in the dashboard.
type Resource struct {
	// Name is the backend collection name.
	Name     string
	Heading  string
	ListPath string
	// DetailPattern is the chi pattern of the detail page, if there is one.
	DetailPattern string
	NewPath       string
	NewLabel      string
	Columns       []Column
	Fields        []Column
}

// DetailHref builds the detail link for a record id.
func (r Resource) DetailHref(id string) string {
	if r.DetailPattern == "" || id == "" {
		return ""
	}
	return routes.Expand(r.DetailPattern, id)
}

var (
	Agencies = Resource{
		Name: "agencies", Heading: "Agencies", ListPath: routes.PathAgencies, DetailPattern: routes.PathAgency,
		Columns: []Column{{Field: "name", Label: "Name"}, {Field: "tax_id", Label: "Tax ID"}, {Field: "branches_count", Label: "Branches", Kind: KindNumber}, {Field: "active", Label: "Active", Kind: KindBool}},
		Fields:  []Column{{Field: "name", Label: "Name"}, {Field: "tax_id", Label: "Tax ID"}, {Field: "email", Label: "Email"}, {Field: "phone", Label: "Phone"}, {Field: "commission_rate", Label: "Commission rate", Kind: KindNumber}, {Field: "created_at", Label: "Created", Kind: KindDate}},
	}
	Branches = Resource{
		Name: "branches", Heading: "Branches", ListPath: routes.PathBranches,
		Columns: []Column{{Field: "name", Label: "Name"}, {Field: "agency_name", Label: "Agency"}, {Field: "city", Label: "City"}, {Field: "active", Label: "Active", Kind: KindBool}},
	}
	Users = Resource{
		Name: "users", Heading: "Users", ListPath: routes.PathUsers,
		Columns: []Column{{Field: "name", Label: "Name"}, {Field: "surname", Label: "Surname"}, {Field: "email", Label: "Email"}, {Field: "role", Label: "Role"}},
	}
	Packages = Resource{
		Name: "packages", Heading: "Packages", ListPath: routes.PathPackages,
		Columns: []Column{{Field: "name", Label: "Package"}, {Field: "coverage_km", Label: "Coverage (km)", Kind: KindNumber}, {Field: "price", Label: "Price", Kind: KindMoney}},
	}
	Customers = Resource{
		Name: "customers", Heading: "Customers", ListPath: routes.PathCustomers, DetailPattern: routes.PathCustomer,
		Columns: []Column{{Field: "name", Label: "Name"}, {Field: "document", Label: "Document"}, {Field: "phone", Label: "Phone"}, {Field: "created_at", Label: "Since", Kind: KindDate}},
		Fields:  []Column{{Field: "name", Label: "Name"}, {Field: "surname", Label: "Surname"}, {Field: "document", Label: "Document"}, {Field: "email", Label: "Email"}, {Field: "phone", Label: "Phone"}, {Field: "address", Label: "Address"}, {Field: "created_at", Label: "Customer since", Kind: KindDate}},
	}
	Vehicles = Resource{
		Name: "vehicles", Heading: "Vehicles", ListPath: routes.PathVehicles, DetailPattern: routes.PathVehicle,
		Columns: []Column{{Field: "plate", Label: "Plate"}, {Field: "brand", Label: "Brand"}, {Field: "model", Label: "Model"}, {Field: "year", Label: "Year", Kind: KindNumber}},
		Fields:  []Column{{Field: "plate", Label: "Plate"}, {Field: "brand", Label: "Brand"}, {Field: "model", Label: "Model"}, {Field: "year", Label: "Year", Kind: KindNumber}, {Field: "color", Label: "Colour"}, {Field: "customer_name", Label: "Owner"}},
	}
	Sales = Resource{
		Name: "sales", Heading: "Sales", ListPath: routes.PathSales, DetailPattern: routes.PathSale,
		NewPath: routes.PathSaleNew, NewLabel: "New sale",
		Columns: []Column{{Field: "number", Label: "Number"}, {Field: "customer_name", Label: "Customer"}, {Field: "package_name", Label: "Package"}, {Field: "start_date", Label: "Start", Kind: KindDate}, {Field: "total", Label: "Total", Kind: KindMoney}},
		Fields:  []Column{{Field: "number", Label: "Number"}, {Field: "customer_name", Label: "Customer"}, {Field: "vehicle_plate", Label: "Vehicle"}, {Field: "package_name", Label: "Package"}, {Field: "start_date", Label: "Start", Kind: KindDate}, {Field: "end_date", Label: "End", Kind: KindDate}, {Field: "total", Label: "Total", Kind: KindMoney}, {Field: "status", Label: "Status"}},
	}
	Payments = Resource{
		Name: "payments", Heading: "Payments", ListPath: routes.PathPayments,
		Columns: []Column{{Field: "reference", Label: "Reference"}, {Field: "sale_number", Label: "Sale"}, {Field: "paid_at", Label: "Paid", Kind: KindDate}, {Field: "amount", Label: "Amount", Kind: KindMoney}},
	}
	Commissions = Resource{
		Name: "commissions", Heading: "Commissions", ListPath: routes.PathCommissions,
		Columns: []Column{{Field: "period", Label: "Period"}, {Field: "sales_count", Label: "Sales", Kind: KindNumber}, {Field: "amount", Label: "Amount", Kind: KindMoney}, {Field: "settled", Label: "Settled", Kind: KindBool}},
	}
	Tickets = Resource{
		Name: "tickets", Heading: "Tickets", ListPath: routes.PathTickets,
		Columns: []Column{{Field: "subject", Label: "Subject"}, {Field: "status", Label: "Status"}, {Field: "updated_at", Label: "Updated", Kind: KindDate}},
	}
	Reports = Resource{
		Name: "reports", Heading: "Reports", ListPath: routes.PathReports,
		Columns: []Column{{Field: "name", Label: "Report"}, {Field: "period", Label: "Period"}, {Field: "generated_at", Label: "Generated", Kind: KindDate}},
	}
	SupportFiles = Resource{
		Name: "support-files", Heading: "Files", ListPath: routes.PathSupportFiles, DetailPattern: routes.PathSupportFileView,
		NewPath: routes.PathSupportFileNew, NewLabel: "Create file",
		Columns: []Column{{Field: "number", Label: "File"}, {Field: "plate", Label: "Plate"}, {Field: "priority", Label: "Priority"}, {Field: "status", Label: "Status"}, {Field: "created_at", Label: "Opened", Kind: KindDate}},
		Fields:  []Column{{Field: "number", Label: "File"}, {Field: "plate", Label: "Plate"}, {Field: "customer_document", Label: "Customer document"}, {Field: "priority", Label: "Priority"}, {Field: "status", Label: "Status"}, {Field: "description", Label: "Description"}, {Field: "created_at", Label: "Opened", Kind: KindDate}},
	}
)

// Dashboard lists the admin collections mounted as list pages.
func Dashboard() []Resource {
	return []Resource{Agencies, Branches, Users, Packages, Customers, Vehicles, Sales, Payments, Commissions, Tickets, Reports}
}

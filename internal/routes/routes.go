// Package routes holds the static route table. Every path the portal serves
// is exactly one of public, guarded, or guarded with a role restriction.
package routes

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/roadassist/portal/internal/identity"
)

// Well known paths.
const (
	PathHome      = "/"
	PathAbout     = "/about"
	PathServices  = "/services"
	PathContact   = "/contact"
	PathLogin     = "/login"
	PathLogout    = "/logout"
	PathTheme     = "/theme"
	PathContract  = "/contract"
	PathDashboard = "/dashboard"
	PathProfile   = "/dashboard/profile"

	PathAgencies    = "/dashboard/agencies"
	PathAgency      = "/dashboard/agencies/{id}"
	PathBranches    = "/dashboard/branches"
	PathUsers       = "/dashboard/users"
	PathPackages    = "/dashboard/packages"
	PathCustomers   = "/dashboard/customers"
	PathCustomer    = "/dashboard/customers/{id}"
	PathVehicles    = "/dashboard/vehicles"
	PathVehicle     = "/dashboard/vehicles/{id}"
	PathSales       = "/dashboard/sales"
	PathSaleNew     = "/dashboard/sales/new"
	PathSale        = "/dashboard/sales/{id}"
	PathPayments    = "/dashboard/payments"
	PathCommissions = "/dashboard/commissions"
	PathTickets     = "/dashboard/tickets"
	PathReports     = "/dashboard/reports"

	PathSupport         = "/dashboard/support"
	PathSupportFiles    = "/dashboard/support/files"
	PathSupportFileNew  = "/dashboard/support/files/new"
	PathSupportFileView = "/dashboard/support/files/{id}"

	PathAPIMe         = "/api/me"
	PathAPINavigation = "/api/navigation"
	PathAPITheme      = "/api/theme"
)

// PrivatePrefix marks the authenticated application. Paths under it are
// never public.
const PrivatePrefix = PathDashboard

// Kind classifies a descriptor.
type Kind int

const (
	KindPublic Kind = iota
	KindGuarded
	KindGuardedRoles
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindGuarded:
		return "guarded"
	case KindGuardedRoles:
		return "guarded-roles"
	default:
		return "unknown"
	}
}

// Descriptor is the static authorization data of one path pattern.
type Descriptor struct {
	Pattern string
	Title   string
	Public  bool
	// Roles restricts access when non-empty.
	Roles             identity.RoleSet
	RequiresContract  bool
	SkipContractCheck bool
}

// Kind reports the class of the descriptor.
func (d Descriptor) Kind() Kind {
	switch {
	case d.Public:
		return KindPublic
	case d.Roles.Empty():
		return KindGuarded
	default:
		return KindGuardedRoles
	}
}

// Allows reports whether role may reach the route, ignoring contract state.
func (d Descriptor) Allows(role identity.Role) bool {
	return d.Public || d.Roles.Empty() || d.Roles.Has(role)
}

var (
	platformAdmins = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin)
	agencyAdmins   = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin, identity.RoleAgencyAdmin)
	branchAdmins   = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin, identity.RoleAgencyAdmin, identity.RoleBranchAdmin)
	salesStaff     = identity.Except(identity.RoleSupport)
	paymentStaff   = identity.Except(identity.RoleSupport, identity.RoleBranchUser)
	supportOnly    = identity.Roles(identity.RoleSupport)
)

var table = []Descriptor{
	{Pattern: PathHome, Title: "Home", Public: true},
	{Pattern: PathAbout, Title: "About", Public: true},
	{Pattern: PathServices, Title: "Services", Public: true},
	{Pattern: PathContact, Title: "Contact", Public: true},
	{Pattern: PathLogin, Title: "Sign in", Public: true},
	{Pattern: PathLogout, Title: "Sign out", Public: true},
	{Pattern: PathTheme, Title: "Theme", Public: true},
	{Pattern: PathAPITheme, Title: "Theme", Public: true},

	{Pattern: PathContract, Title: "Agency contract", SkipContractCheck: true},
	{Pattern: PathProfile, Title: "Profile"},
	{Pattern: PathAPIMe, Title: "Me", SkipContractCheck: true},
	{Pattern: PathAPINavigation, Title: "Navigation", SkipContractCheck: true},

	{Pattern: PathDashboard, Title: "Dashboard", Roles: salesStaff},
	{Pattern: PathAgencies, Title: "Agencies", Roles: platformAdmins},
	{Pattern: PathAgency, Title: "Agency", Roles: platformAdmins},
	{Pattern: PathBranches, Title: "Branches", Roles: agencyAdmins},
	{Pattern: PathUsers, Title: "Users", Roles: branchAdmins},
	{Pattern: PathPackages, Title: "Packages", Roles: agencyAdmins},
	{Pattern: PathCustomers, Title: "Customers", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathCustomer, Title: "Customer", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathVehicles, Title: "Vehicles", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathVehicle, Title: "Vehicle", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathSales, Title: "Sales", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathSaleNew, Title: "New sale", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathSale, Title: "Sale", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathPayments, Title: "Payments", Roles: paymentStaff, RequiresContract: true},
	{Pattern: PathCommissions, Title: "Commissions", Roles: salesStaff, RequiresContract: true},
	{Pattern: PathTickets, Title: "Tickets", Roles: salesStaff},
	{Pattern: PathReports, Title: "Reports", Roles: agencyAdmins},

	{Pattern: PathSupport, Title: "Sales query", Roles: supportOnly},
	{Pattern: PathSupportFiles, Title: "Files", Roles: supportOnly},
	{Pattern: PathSupportFileNew, Title: "Create file", Roles: supportOnly},
	{Pattern: PathSupportFileView, Title: "File", Roles: supportOnly},
}

var byPattern = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(table))
	for _, d := range table {
		m[d.Pattern] = d
	}
	return m
}()

// Table returns a copy of the route table in declaration order.
func Table() []Descriptor {
	out := make([]Descriptor, len(table))
	copy(out, table)
	return out
}

// Lookup finds the descriptor registered for pattern.
func Lookup(pattern string) (Descriptor, bool) {
	d, ok := byPattern[pattern]
	return d, ok
}

// MustLookup is Lookup for patterns known at compile time.
func MustLookup(pattern string) Descriptor {
	d, ok := Lookup(pattern)
	if !ok {
		panic("routes: unknown pattern " + pattern)
	}
	return d
}

// Match resolves a concrete request path to its descriptor, treating
// "{param}" segments as wildcards. Literal segments win over parameters.
func Match(path string) (Descriptor, bool) {
	if d, ok := byPattern[path]; ok {
		return d, true
	}
	segments := splitPath(path)
	for _, d := range table {
		pattern := splitPath(d.Pattern)
		if len(pattern) != len(segments) {
			continue
		}
		matched := true
		for i, seg := range pattern {
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				continue
			}
			if seg != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return d, true
		}
	}
	return Descriptor{}, false
}

// PublicPaths lists the literal public paths, sorted.
func PublicPaths() []string {
	var out []string
	for _, d := range table {
		if d.Public {
			out = append(out, d.Pattern)
		}
	}
	sort.Strings(out)
	return out
}

// NotFound redirects unmatched paths to the public landing page.
func NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// Expand substitutes params, in order, for the "{param}" segments of pattern.
// Values are path-escaped.
func Expand(pattern string, params ...string) string {
	segments := splitPath(pattern)
	for i, seg := range segments {
		if len(params) == 0 {
			break
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segments[i] = url.PathEscape(params[0])
			params = params[1:]
		}
	}
	return "/" + strings.Join(segments, "/")
}

package navigation

import (
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
)

// Entry is one static menu item.
type Entry struct {
	Icon   Icon
	Label  string
	Path   string
	Roles  identity.RoleSet
	Active bool
}

var (
	platformAdmins = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin)
	agencyAdmins   = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin, identity.RoleAgencyAdmin)
	branchAdmins   = identity.Roles(identity.RoleSuperAdmin, identity.RoleSuperAgencyAdmin, identity.RoleAgencyAdmin, identity.RoleBranchAdmin)
	salesStaff     = identity.Except(identity.RoleSupport)
	paymentStaff   = identity.Except(identity.RoleSupport, identity.RoleBranchUser)
	supportOnly    = identity.Roles(identity.RoleSupport)
)

var adminMenu = []Entry{
	{Icon: IconHome, Label: "Dashboard", Path: routes.PathDashboard, Roles: salesStaff},
	{Icon: IconReceipt, Label: "Sales", Path: routes.PathSales, Roles: salesStaff},
	{Icon: IconCartPlus, Label: "New sale", Path: routes.PathSaleNew, Roles: salesStaff},
	{Icon: IconUsers, Label: "Customers", Path: routes.PathCustomers, Roles: salesStaff},
	{Icon: IconCar, Label: "Vehicles", Path: routes.PathVehicles, Roles: salesStaff},
	{Icon: IconCreditCard, Label: "Payments", Path: routes.PathPayments, Roles: paymentStaff},
	{Icon: IconPercent, Label: "Commissions", Path: routes.PathCommissions, Roles: salesStaff},
	{Icon: IconPackage, Label: "Packages", Path: routes.PathPackages, Roles: agencyAdmins},
	{Icon: IconBuilding, Label: "Agencies", Path: routes.PathAgencies, Roles: platformAdmins},
	{Icon: IconBranch, Label: "Branches", Path: routes.PathBranches, Roles: agencyAdmins},
	{Icon: IconUserCog, Label: "Users", Path: routes.PathUsers, Roles: branchAdmins},
	{Icon: IconTicket, Label: "Tickets", Path: routes.PathTickets, Roles: salesStaff},
	{Icon: IconChart, Label: "Reports", Path: routes.PathReports, Roles: agencyAdmins},
}

var supportMenu = []Entry{
	{Icon: IconSearch, Label: "Sales query", Path: routes.PathSupport, Roles: supportOnly},
	{Icon: IconFolder, Label: "Files", Path: routes.PathSupportFiles, Roles: supportOnly},
	{Icon: IconFilePlus, Label: "Create file", Path: routes.PathSupportFileNew, Roles: supportOnly},
}

// AdminMenu returns the general admin menu in display order.
func AdminMenu() []Entry {
	return clone(adminMenu)
}

// SupportMenu returns the fixed support shell menu.
func SupportMenu() []Entry {
	return clone(supportMenu)
}

func clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

package navigation

import "fmt"

// Icon identifies a glyph in the static SVG sprite. The set is closed: a
// value outside iconTable is rejected by Validate at startup.
type Icon int

const (
	IconHome Icon = iota + 1
	IconReceipt
	IconCartPlus
	IconUsers
	IconCar
	IconCreditCard
	IconPercent
	IconPackage
	IconBuilding
	IconBranch
	IconUserCog
	IconTicket
	IconChart
	IconSearch
	IconFolder
	IconFilePlus
	IconUser
)

var iconTable = map[Icon]string{
	IconHome:       "icon-home",
	IconReceipt:    "icon-receipt",
	IconCartPlus:   "icon-cart-plus",
	IconUsers:      "icon-users",
	IconCar:        "icon-car",
	IconCreditCard: "icon-credit-card",
	IconPercent:    "icon-percent",
	IconPackage:    "icon-package",
	IconBuilding:   "icon-building",
	IconBranch:     "icon-branch",
	IconUserCog:    "icon-user-cog",
	IconTicket:     "icon-ticket",
	IconChart:      "icon-chart",
	IconSearch:     "icon-search",
	IconFolder:     "icon-folder",
	IconFilePlus:   "icon-file-plus",
	IconUser:       "icon-user",
}

// Symbol returns the sprite symbol id for i.
func (i Icon) Symbol() (string, bool) {
	id, ok := iconTable[i]
	return id, ok
}

func (i Icon) String() string {
	if id, ok := iconTable[i]; ok {
		return id
	}
	return fmt.Sprintf("Icon(%d)", int(i))
}

// IconSymbol is the template helper form of Symbol. Unknown icons render an
// empty reference, which Validate prevents for configured menus.
func IconSymbol(i Icon) string {
	id, _ := i.Symbol()
	return id
}

// Icons lists every declared icon.
func Icons() []Icon {
	out := make([]Icon, 0, len(iconTable))
	for i := IconHome; i <= IconUser; i++ {
		out = append(out, i)
	}
	return out
}

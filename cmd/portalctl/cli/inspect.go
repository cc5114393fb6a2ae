package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/theme"
)

// RouteRow is one line of the route table listing.
type RouteRow struct {
	Pattern           string   `json:"pattern" yaml:"pattern"`
	Title             string   `json:"title" yaml:"title"`
	Kind              string   `json:"kind" yaml:"kind"`
	Roles             []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	RequiresContract  bool     `json:"requires_contract" yaml:"requires_contract"`
	SkipContractCheck bool     `json:"skip_contract_check" yaml:"skip_contract_check"`
}

// RouteRows lists the route table in pattern order.
func RouteRows() []RouteRow {
	table := routes.Table()
	rows := make([]RouteRow, 0, len(table))
	for _, d := range table {
		row := RouteRow{
			Pattern:           d.Pattern,
			Title:             d.Title,
			Kind:              d.Kind().String(),
			RequiresContract:  d.RequiresContract,
			SkipContractCheck: d.SkipContractCheck,
		}
		for _, r := range d.Roles {
			row.Roles = append(row.Roles, r.String())
		}
		rows = append(rows, row)
	}
	return rows
}

func newRoutesCommand(env Env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := RouteRows()
			return render(env.Stdout, output, rows, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "PATTERN\tKIND\tROLES\tCONTRACT")
				for _, r := range rows {
					roles := "-"
					if len(r.Roles) > 0 {
						roles = strings.Join(r.Roles, ",")
					}
					contract := ""
					switch {
					case r.RequiresContract:
						contract = "required"
					case r.SkipContractCheck:
						contract = "skip"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Pattern, r.Kind, roles, contract)
				}
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// MenuItem is one projected navigation entry.
type MenuItem struct {
	Label  string `json:"label" yaml:"label"`
	Path   string `json:"path" yaml:"path"`
	Icon   string `json:"icon" yaml:"icon"`
	Active bool   `json:"active,omitempty" yaml:"active,omitempty"`
}

// MenuReport is the projection of the menu for one role.
type MenuReport struct {
	Role     string     `json:"role" yaml:"role"`
	Variant  string     `json:"variant" yaml:"variant"`
	Primary  []MenuItem `json:"primary" yaml:"primary"`
	Overflow []MenuItem `json:"overflow" yaml:"overflow"`
}

// ProjectMenu builds the navigation a role would see on path, the way the
// shells do.
func ProjectMenu(role identity.Role, items int, path string) MenuReport {
	variant := shell.VariantFor(role)
	var proj navigation.Projection
	if variant == shell.VariantSupport {
		entries := navigation.MarkActive(navigation.SupportMenu(), path)
		proj = navigation.Projection{Primary: entries, Mobile: entries}
	} else {
		proj = navigation.Project(navigation.MarkActive(navigation.AdminMenu(), path), role, items)
	}
	return MenuReport{
		Role:     role.String(),
		Variant:  string(variant),
		Primary:  menuItems(proj.Primary),
		Overflow: menuItems(proj.Overflow),
	}
}

func menuItems(entries []navigation.Entry) []MenuItem {
	out := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, MenuItem{Label: e.Label, Path: e.Path, Icon: e.Icon.String(), Active: e.Active})
	}
	return out
}

func newMenuCommand(env Env) *cobra.Command {
	var (
		rawRole string
		items   int
		path    string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the navigation projected for a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := identity.ParseRole(rawRole)
			if err != nil {
				return err
			}
			report := ProjectMenu(role, items, path)
			return render(env.Stdout, output, report, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "# %s (%s shell)\n", role.Label(), report.Variant)
				fmt.Fprintln(tw, "SLOT\tLABEL\tPATH\tICON")
				writeMenuRows(tw, "primary", report.Primary)
				writeMenuRows(tw, "overflow", report.Overflow)
			})
		},
	}
	cmd.Flags().StringVar(&rawRole, "role", "", "role to project, e.g. AGENCY_ADMIN")
	cmd.Flags().IntVar(&items, "items", navigation.DefaultPrimaryItems, "number of inline menu entries")
	cmd.Flags().StringVar(&path, "path", "", "current path used to mark the active entry")
	_ = cmd.MarkFlagRequired("role")
	addOutputFlag(cmd, &output)
	return cmd
}

func writeMenuRows(tw *tabwriter.Writer, slot string, items []MenuItem) {
	for _, it := range items {
		label := it.Label
		if it.Active {
			label += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", slot, label, it.Path, it.Icon)
	}
}

func newThemeCommand(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Theme helpers",
	}
	var (
		rawPref string
		path    string
		osDark  bool
	)
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the effective theme for a path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pref, err := theme.ParsePreference(rawPref)
			if err != nil {
				return err
			}
			c := theme.DefaultClassifier()
			scope := "private"
			if c.IsPublic(path) {
				scope = "public"
			}
			fmt.Fprintf(env.Stdout, "%s (%s path, preference %s)\n", c.Resolve(pref, path, osDark), scope, pref)
			return nil
		},
	}
	resolve.Flags().StringVar(&rawPref, "preference", string(theme.PreferenceSystem), "light, dark or system")
	resolve.Flags().StringVar(&path, "path", "/", "request path")
	resolve.Flags().BoolVar(&osDark, "os-dark", false, "the OS reports a dark color scheme")
	cmd.AddCommand(resolve)
	return cmd
}

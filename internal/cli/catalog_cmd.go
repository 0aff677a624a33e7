package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the business catalog",
	}

	cmd.AddCommand(newCatalogShowCmd())
	cmd.AddCommand(newCatalogExportCmd())
	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List services, prices and hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			l := domain.Language(lang)
			if !l.Valid() {
				return fmt.Errorf("unknown language %q", lang)
			}
			printCatalog(cmd.OutOrStdout(), cat, l)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "language to show names in (en, hi, mr)")
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the effective catalog as YAML, a starting point for business.catalogPath",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cat)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Business.CatalogPath)
	if err != nil {
		return nil, err
	}
	if cfg.Business.Name != "" {
		cat.Business = cfg.Business.Name
	}
	return cat, nil
}

func printCatalog(w io.Writer, cat *catalog.Catalog, lang domain.Language) {
	fmt.Fprintf(w, "%s\n", cat.Business)
	if hours := cat.HoursText(lang); hours != "" {
		fmt.Fprintf(w, "Hours: %s\n", hours)
	}
	fmt.Fprintln(w)
	for i, s := range cat.Active() {
		fmt.Fprintf(w, "  %d. %-12s %-28s %s %d\n", i+1, s.ID, s.Name(lang), cat.Currency, s.Price)
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/spf13/cobra"
)

var (
	// sites command flags
	siteCounty string
	siteSearch string
	siteFile   string
	siteSets   []string
	siteYes    bool
)

// sitesCmd represents the sites command
var sitesCmd = &cobra.Command{
	Use:     "sites",
	Aliases: []string{"site"},
	Short:   "Manage observation sites",
}

var listSitesCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites by county",
	Long: `List observation sites ordered by county and name.

Examples:
  seatbelt-admin sites list
  seatbelt-admin sites list --county Wake --search "US-1"`,
	Args: cobra.NoArgs,
	RunE: listSites,
}

func listSites(cmd *cobra.Command, args []string) error {
	dir, err := getRuntime().client.ListSites(cmd.Context())
	if err != nil {
		return err
	}

	var sites []survey.Site
	if siteCounty != "" {
		for _, c := range dir.Counties() {
			if strings.EqualFold(c, siteCounty) {
				sites = survey.SiteDirectory{c: dir[c]}.All()
			}
		}
	} else {
		sites = dir.All()
	}
	sites = survey.FilterSites(sites, siteSearch)
	page := paging.Paginate(sites, pageNumber, pageSize)

	if jsonOutput {
		printResult(cmd.OutOrStdout(), page)
		return nil
	}

	w := cmd.OutOrStdout()
	printHeading(w, "sites")
	if page.Total == 0 {
		fmt.Fprintln(w, "No sites found")
		return nil
	}
	t := newTable("county", "name", "roadway", "location", "direction", "coordinates")
	for _, s := range page.Items {
		coords := "-"
		if s.Latitude != "" && s.Longitude != "" {
			coords = s.Latitude.String() + ", " + s.Longitude.String()
		}
		t.add(s.County, s.Name, orDash(s.Roadway), orDash(s.Location), orDash(s.DirectionOfTravel), coords)
	}
	t.print(w)
	printPageFooter(w, page)
	return nil
}

var getSiteCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getRuntime().client.GetSite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), s)
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Name: %s\n", s.Name)
		fmt.Fprintf(w, "County: %s\n", orDash(s.County))
		fmt.Fprintf(w, "Roadway: %s\n", orDash(s.Roadway))
		fmt.Fprintf(w, "Location: %s\n", orDash(s.Location))
		fmt.Fprintf(w, "Direction Of Travel: %s\n", orDash(s.DirectionOfTravel))
		fmt.Fprintf(w, "Which Side: %s\n", orDash(s.WhichSide))
		fmt.Fprintf(w, "Segment Length: %s\n", orDash(s.SegmentLength.String()))
		if u := s.MapsURL(); u != "" {
			fmt.Fprintf(w, "Map: %s\n", u)
		}
		if s.Notes != "" {
			fmt.Fprintf(w, "Notes: %s\n", s.Notes)
		}
		return nil
	},
}

var createSiteCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a site",
	Long: `Create a site from a YAML or JSON file and/or --set assignments.

Examples:
  seatbelt-admin sites create -f wake-us1.yaml
  seatbelt-admin sites create --set county=Wake --set name=W-12 --set roadway=US-1 \
    --set location="Exit 98" --set direction_of_travel=NB --set latitude=35.77 --set longitude=-78.63`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadInput(nil, siteFile, siteSets)
		if err != nil {
			return err
		}
		var s survey.Site
		if err := json.Unmarshal(doc, &s); err != nil {
			return fmt.Errorf("invalid site: %v", err)
		}
		if err := getRuntime().client.CreateSite(cmd.Context(), s); err != nil {
			return err
		}
		return printDone(cmd, "Site created", s.Name)
	},
}

var updateSiteCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a site",
	Long: `Update a site. The current record is fetched and the file and --set
assignments are applied over it.

Examples:
  seatbelt-admin sites update W-12 --set notes="Moved to shoulder"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		client := getRuntime().client
		current, err := client.GetSite(cmd.Context(), name)
		if err != nil {
			return err
		}
		base, err := json.Marshal(current)
		if err != nil {
			return err
		}
		doc, err := loadInput(base, siteFile, siteSets)
		if err != nil {
			return err
		}
		var s survey.Site
		if err := json.Unmarshal(doc, &s); err != nil {
			return fmt.Errorf("invalid site: %v", err)
		}
		if err := client.UpdateSite(cmd.Context(), name, s); err != nil {
			return err
		}
		return printDone(cmd, "Site updated", name)
	},
}

var deleteSiteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !siteYes && !confirm(cmd, fmt.Sprintf("Delete site %s?", name)) {
			return errAborted
		}
		if err := getRuntime().client.DeleteSite(cmd.Context(), name); err != nil {
			return err
		}
		return printDone(cmd, "Site deleted", name)
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.AddCommand(listSitesCmd, getSiteCmd, createSiteCmd, updateSiteCmd, deleteSiteCmd)

	addPagingFlags(listSitesCmd)
	listSitesCmd.Flags().StringVarP(&siteCounty, "county", "c", "", "Only sites in this county")
	listSitesCmd.Flags().StringVarP(&siteSearch, "search", "s", "", "Match name, roadway, location or notes")

	for _, c := range []*cobra.Command{createSiteCmd, updateSiteCmd} {
		c.Flags().StringVarP(&siteFile, "file", "f", "", "YAML or JSON file describing the site")
		c.Flags().StringArrayVar(&siteSets, "set", nil, "Set a field, e.g. --set direction_of_travel=SB")
	}
	deleteSiteCmd.Flags().BoolVarP(&siteYes, "yes", "y", false, "Do not ask for confirmation")
}

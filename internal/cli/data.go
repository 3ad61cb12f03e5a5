package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/spf13/cobra"
)

var (
	// data command flags
	dataCounty    string
	dataSearch    string
	dataVolume    bool
	dataDimension string
	exportYear    int
	exportDir     string
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Browse, summarise and export collected survey data",
}

var listDataCmd = &cobra.Command{
	Use:   "list",
	Short: "List observations or volume counts, newest first",
	Long: `List seatbelt observations, or traffic volume counts with --volume.

Examples:
  seatbelt-admin data list --county Wake
  seatbelt-admin data list --volume --search W-12 --page 3`,
	Args: cobra.NoArgs,
	RunE: listData,
}

func listData(cmd *cobra.Command, args []string) error {
	ds, err := getRuntime().client.GetCollections(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if dataVolume {
		page := paging.Paginate(survey.FilterVolume(ds.Volume, dataCounty, dataSearch), pageNumber, pageSize)
		if jsonOutput {
			printResult(w, page)
			return nil
		}
		printHeading(w, "volume counts")
		if page.Total == 0 {
			fmt.Fprintln(w, "No volume counts found")
			return nil
		}
		t := newTable("time", "county", "site", "observer", "count", "window")
		for _, v := range page.Items {
			window := "-"
			if v.TimeStart != "" || v.TimeEnd != "" {
				window = v.TimeStart + " - " + v.TimeEnd
			}
			t.add(formatTimestamp(v.Timestamp), v.County, v.Site, orDash(v.Observer), orDash(v.Count.String()), window)
		}
		t.print(w)
		printPageFooter(w, page)
		return nil
	}

	page := paging.Paginate(survey.FilterObservations(ds.Collections, dataCounty, dataSearch), pageNumber, pageSize)
	if jsonOutput {
		printResult(w, page)
		return nil
	}
	printHeading(w, "observations")
	if page.Total == 0 {
		fmt.Fprintln(w, "No observations found")
		return nil
	}
	t := newTable("time", "county", "site", "observer", "seatbelt", "gender", "vehicle")
	for _, o := range page.Items {
		t.add(formatTimestamp(o.Timestamp), o.County, o.Site, orDash(o.Observer), orDash(o.SeatbeltOn), orDash(o.Gender), orDash(o.VehicleType))
	}
	t.print(w)
	printPageFooter(w, page)
	return nil
}

func formatTimestamp(s string) string {
	if t, ok := survey.ParseTimestamp(s); ok {
		return t.Local().Format("2006-01-02 15:04")
	}
	return orDash(s)
}

var summaryDataCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise seatbelt usage",
	Long: `Summarise seatbelt usage grouped by county, vehicle type or gender, and
total the volume counts per site.

Examples:
  seatbelt-admin data summary
  seatbelt-admin data summary --by vehicle --county Durham`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dim, ok := survey.ParseDimension(dataDimension)
		if !ok {
			return fmt.Errorf("unknown grouping %q; use county, vehicle or gender", dataDimension)
		}
		ds, err := getRuntime().client.GetCollections(cmd.Context())
		if err != nil {
			return err
		}
		obs := survey.FilterObservations(ds.Collections, dataCounty, "")
		usage := survey.UsageBy(obs, dim)
		totals := survey.VolumeTotals(survey.FilterVolume(ds.Volume, dataCounty, ""))

		w := cmd.OutOrStdout()
		if jsonOutput {
			printResult(w, map[string]any{
				"dimension":    dim,
				"observations": len(obs),
				"usage":        usage,
				"volume":       totals,
			})
			return nil
		}

		printHeading(w, "seatbelt usage by "+string(dim))
		if len(usage) == 0 {
			fmt.Fprintln(w, "No observations found")
		} else {
			t := newTable(string(dim), "yes", "no", "maybe", "total", "rate")
			for _, u := range usage {
				t.add(orDash(u.Key), strconv.Itoa(u.Yes), strconv.Itoa(u.No), strconv.Itoa(u.Maybe),
					strconv.Itoa(u.Total()), fmt.Sprintf("%.1f%%", u.Rate()*100))
			}
			t.print(w)
		}

		fmt.Fprintln(w)
		printHeading(w, "volume")
		if len(totals) == 0 {
			fmt.Fprintln(w, "No volume counts found")
			return nil
		}
		t := newTable("county", "site", "total", "samples")
		for _, v := range totals {
			t.add(v.County, v.Site, strconv.FormatFloat(v.Total, 'f', -1, 64), strconv.Itoa(v.Samples))
		}
		t.print(w)
		return nil
	},
}

var exportDataCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a year of data as an Excel workbook",
	Long: `Download a year of survey data as seatbelt-data-<year>.xlsx.

Examples:
  seatbelt-admin data export --year 2024
  seatbelt-admin data export --output ~/Downloads`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		year := exportYear
		if year == 0 {
			year = time.Now().Year()
		}
		if !validExportYear(year, time.Now().Year()) {
			return fmt.Errorf("year must be between %d and %d", apiclient.FirstExportYear, time.Now().Year())
		}

		data, err := getRuntime().client.ExportData(cmd.Context(), year)
		if err != nil {
			return err
		}
		path := filepath.Join(exportDir, apiclient.ExportFileName(year))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("unable to save export: %w", err)
		}

		if jsonOutput {
			printResult(cmd.OutOrStdout(), map[string]any{"file": path, "bytes": len(data)})
			return nil
		}
		okLabel.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(data))
		return nil
	},
}

func validExportYear(year, current int) bool {
	for _, y := range apiclient.ExportYears(current) {
		if y == year {
			return true
		}
	}
	return false
}

var uploadDataCmd = &cobra.Command{
	Use:   "upload <collection-id> <file>",
	Short: "Upload a file to a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("unable to open file: %w", err)
		}
		defer f.Close()

		res, err := getRuntime().client.UploadData(cmd.Context(), args[0], filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), res)
			return nil
		}
		okLabel.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", filepath.Base(args[1]))
		if res.FileURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "File URL: %s\n", res.FileURL)
		}
		return nil
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := getRuntime().client.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), stats)
			return nil
		}
		w := cmd.OutOrStdout()
		printHeading(w, "stats")
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := newTable("name", "value")
		for _, k := range keys {
			t.add(title.String(k), fmt.Sprint(stats[k]))
		}
		t.print(w)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(statsCmd)
	dataCmd.AddCommand(listDataCmd, summaryDataCmd, exportDataCmd, uploadDataCmd)

	addPagingFlags(listDataCmd)
	for _, c := range []*cobra.Command{listDataCmd, summaryDataCmd} {
		c.Flags().StringVarP(&dataCounty, "county", "c", "", "Only data from this county")
	}
	listDataCmd.Flags().StringVarP(&dataSearch, "search", "s", "", "Match site, observer and other fields")
	listDataCmd.Flags().BoolVar(&dataVolume, "volume", false, "List volume counts instead of observations")
	summaryDataCmd.Flags().StringVar(&dataDimension, "by", string(survey.ByCounty), "Group by county, vehicle or gender")
	exportDataCmd.Flags().IntVar(&exportYear, "year", 0, "Year to export, defaults to the current year")
	exportDataCmd.Flags().StringVarP(&exportDir, "output", "o", ".", "Directory to save the workbook in")
}

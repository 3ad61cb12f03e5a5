package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headingLabel = color.New(color.Bold)
	alertLabel   = color.New(color.FgHiYellow, color.Bold)
	errorLabel   = color.New(color.FgHiRed)
	okLabel      = color.New(color.FgGreen)
)

var title = cases.Title(language.English)

// Pagination flags shared by list commands
var (
	pageNumber int
	pageSize   int
)

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&pageNumber, "page", 1, "Page number to show")
	cmd.Flags().IntVar(&pageSize, "page-size", paging.DefaultPageSize, "Rows per page")
}

// table prints rows under title-cased headers.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	hs := make([]string, len(t.headers))
	for i, h := range t.headers {
		hs[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(hs, "\t"))
	for _, r := range t.rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

// printHeading prints a section heading such as "Users:".
func printHeading(w io.Writer, name string) {
	headingLabel.Fprintf(w, "%s:\n", title.String(name))
}

func printPageFooter[T any](w io.Writer, p paging.Page[T]) {
	if p.TotalPages <= 1 {
		return
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d total)", p.Number, p.TotalPages, p.Total)
	if p.HasNext() {
		fmt.Fprintf(w, ", next: --page %d", p.Number+1)
	}
	fmt.Fprintln(w)
}

// reportError prints a failed command. Permission errors are shown as an
// alert; the session is left alone.
func reportError(stdout, stderr io.Writer, err error) {
	if jsonOutput {
		printJSON(stdout, map[string]any{
			"result": 0,
			"error":  err.Error(),
		})
		return
	}

	if errors.Is(err, apiclient.ErrForbidden) {
		alertLabel.Fprintf(stderr, "Access denied: %s\n", err.Error())
		return
	}

	var fe survey.FieldErrors
	if errors.As(err, &fe) {
		errorLabel.Fprintln(stderr, "Error: the request has invalid fields")
		for _, f := range fe {
			fmt.Fprintf(stderr, "  %s: %s\n", f.Field, f.Message)
		}
		return
	}

	errorLabel.Fprintf(stderr, "Error: %v\n", err)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/spf13/cobra"
)

var (
	// images command flags
	imageCounty      string
	imageSite        string
	imageName        string
	imageContentType string
	imageYes         bool
)

// imagesCmd represents the images command
var imagesCmd = &cobra.Command{
	Use:     "images",
	Aliases: []string{"image"},
	Short:   "Manage the photos attached to a site",
}

var listImagesCmd = &cobra.Command{
	Use:   "list",
	Short: "List a site's images",
	Long: `List the images attached to a site.

Examples:
  seatbelt-admin images list --county Wake --site W-12`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := getRuntime().client.ListImages(cmd.Context(), imageCounty, imageSite)
		if err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), images)
			return nil
		}
		w := cmd.OutOrStdout()
		printHeading(w, "images")
		if len(images) == 0 {
			fmt.Fprintln(w, "No images found")
			return nil
		}
		t := newTable("file", "url")
		for _, img := range images {
			t.add(orDash(img.FileName), img.URL)
		}
		t.print(w)
		return nil
	},
}

var uploadImageCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Attach a new image to a site",
	Long: `Attach a new image to a site. The image is stored under its base file name
unless --name is given.

Examples:
  seatbelt-admin images upload ./north-view.jpg --county Wake --site W-12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendImage(cmd, args[0], false)
	},
}

var replaceImageCmd = &cobra.Command{
	Use:   "replace <file>",
	Short: "Replace an existing image",
	Long: `Replace the bytes of an existing image. --name selects the image to replace
and defaults to the local file's base name.

Examples:
  seatbelt-admin images replace ./north-view.jpg --county Wake --site W-12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendImage(cmd, args[0], true)
	},
}

func sendImage(cmd *cobra.Command, path string, replace bool) error {
	ct, err := imageContentTypeOf(path, imageContentType)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open image: %w", err)
	}
	defer f.Close()

	ref := imageRef(filepath.Base(path))
	client := getRuntime().client
	if replace {
		err = client.ReplaceImage(cmd.Context(), ref, ct, f)
	} else {
		err = client.UploadImage(cmd.Context(), ref, ct, f)
	}
	if err != nil {
		return err
	}
	if replace {
		return printDone(cmd, "Image replaced", ref.FileName)
	}
	return printDone(cmd, "Image uploaded", ref.FileName)
}

func imageRef(fileName string) survey.ImageRef {
	if imageName != "" {
		fileName = imageName
	}
	return survey.ImageRef{County: imageCounty, SiteName: imageSite, FileName: fileName}
}

// imageContentTypeOf picks the upload content type from the override, the
// file extension or the file's first bytes, in that order. Only images are
// accepted.
func imageContentTypeOf(path, override string) (string, error) {
	ct := override
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	if ct == "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("unable to open image: %w", err)
		}
		defer f.Close()
		head := make([]byte, 512)
		n, _ := f.Read(head)
		ct = http.DetectContentType(head[:n])
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", filepath.Base(path), ct)
	}
	return ct, nil
}

var deleteImagesCmd = &cobra.Command{
	Use:   "delete <file-name>...",
	Short: "Delete images from a site",
	Long: `Delete one or more images from a site by file name.

Examples:
  seatbelt-admin images delete north-view.jpg south-view.jpg --county Wake --site W-12`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs := make([]survey.ImageRef, 0, len(args))
		for _, name := range args {
			refs = append(refs, survey.ImageRef{County: imageCounty, SiteName: imageSite, FileName: name})
		}
		question := fmt.Sprintf("Delete %d image(s) from %s?", len(refs), imageSite)
		if !imageYes && !confirm(cmd, question) {
			return errAborted
		}
		if err := getRuntime().client.DeleteImages(cmd.Context(), refs); err != nil {
			return err
		}
		return printDone(cmd, "Images deleted", strings.Join(args, ", "))
	},
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.AddCommand(listImagesCmd, uploadImageCmd, replaceImageCmd, deleteImagesCmd)

	for _, c := range imagesCmd.Commands() {
		c.Flags().StringVarP(&imageCounty, "county", "c", "", "County of the site")
		c.Flags().StringVarP(&imageSite, "site", "s", "", "Site name")
		_ = c.MarkFlagRequired("county")
		_ = c.MarkFlagRequired("site")
	}
	for _, c := range []*cobra.Command{uploadImageCmd, replaceImageCmd} {
		c.Flags().StringVarP(&imageName, "name", "n", "", "File name to store the image under")
		c.Flags().StringVar(&imageContentType, "content-type", "", "Override the detected content type")
	}
	deleteImagesCmd.Flags().BoolVarP(&imageYes, "yes", "y", false, "Do not ask for confirmation")
}

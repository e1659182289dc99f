package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuanying/epubmeta/internal/epub"
	"github.com/yuanying/epubmeta/internal/thumbnail"
	"github.com/yuanying/epubmeta/internal/tocview"
)

// openDocument reads the global flags and opens the EPUB at path.
func openDocument(cmd *cobra.Command, path string) (*epub.Document, cliOptions, error) {
	opts, err := readCLIOptions(cmd)
	if err != nil {
		return nil, cliOptions{}, err
	}
	doc, err := epub.OpenWithOptions(path, opts.documentOptions())
	if err != nil {
		return nil, cliOptions{}, fmt.Errorf("open %s: %w", path, err)
	}
	return doc, opts, nil
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file.epub>",
		Short: "Print the package metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("invalid --format %q: must be text, json or yaml", format)
			}
			doc, _, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()
			return writeInfo(cmd.OutOrStdout(), doc, format)
		},
	}
	cmd.Flags().String("format", "text", "Output format: text, json, yaml")
	return cmd
}

func newManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <file.epub>",
		Short: "List the manifest items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMEDIA TYPE\tHREF\tPROPERTIES")
			for _, item := range doc.Manifest().Items() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ID, item.MediaType, item.Href, strings.Join(item.Properties, " "))
			}
			return tw.Flush()
		},
	}
}

func newSpineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spine <file.epub>",
		Short: "List the reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			doc, _, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			out := cmd.OutOrStdout()
			if !all {
				for _, href := range doc.SequentialResources() {
					fmt.Fprintln(out, href)
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "IDREF\tLINEAR\tHREF")
			for _, it := range doc.Spine().Items() {
				item, _ := doc.Manifest().Item(it.Item)
				fmt.Fprintf(tw, "%s\t%t\t%s\n", it.IDRef, it.Linear, item.Href)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("all", false, "Include non-linear items and show idrefs")
	return cmd
}

func newTOCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toc <file.epub>",
		Short: "Print the table of contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asHTML, _ := cmd.Flags().GetBool("html")
			doc, opts, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			toc := doc.TOC()
			if toc == nil {
				opts.Logger.Info("no table of contents", "path", args[0])
				return nil
			}
			if asHTML {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), tocview.HTML(toc, doc.Title()))
				return err
			}
			return tocview.Text(cmd.OutOrStdout(), toc)
		},
	}
	cmd.Flags().Bool("html", false, "Render as a nested HTML list")
	return cmd
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover <file.epub>",
		Short: "Write the cover image to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coverOpts, err := readCoverOptions(cmd)
			if err != nil {
				return err
			}
			doc, opts, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			item, ok := doc.CoverImageItem()
			if !ok {
				return fmt.Errorf("%s: %w: no cover image", args[0], epub.ErrFileNotFound)
			}
			data, err := doc.CoverImage()
			if err != nil {
				return fmt.Errorf("read cover: %w", err)
			}

			ext := strings.ToLower(filepath.Ext(item.Href))
			if coverOpts.Render {
				img, err := thumbnail.Render(data, item.MediaType, coverOpts.Thumbnail)
				if err != nil {
					return err
				}
				opts.Logger.Debug("cover rendered", "width", img.Width, "height", img.Height, "format", img.Format.String())
				data, ext = img.Data, img.Extension()
			}

			output := coverOpts.OutputPath
			if output == "" {
				output = defaultCoverPath(args[0], ext)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write cover: %w", err)
			}
			opts.Logger.Info("cover written", "path", output, "bytes", len(data))
			return nil
		},
	}
	addCoverFlags(cmd)
	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.epub> <dir>",
		Short: "Extract every archive member below a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, opts, err := openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			if err := doc.ExtractTo(args[1]); err != nil {
				return err
			}
			opts.Logger.Info("archive extracted", "dir", args[1], "members", doc.MemberCount())
			return nil
		},
	}
}

// newRootfileCmd only reads container.xml; the package document is not parsed.
func newRootfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rootfile <file.epub>",
		Short: "Print the package document path from META-INF/container.xml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			doc := epub.NewDocument(opts.documentOptions())
			defer doc.Close()
			if err := doc.AttachArchive(args[0]); err != nil {
				return err
			}
			if err := doc.ValidateMimetype(); err != nil {
				return err
			}
			p, err := doc.RootFilePath()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}
}

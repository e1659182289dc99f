package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuanying/epubmeta/internal/epub"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubmeta",
		Short: "Inspect EPUB metadata, reading order and table of contents",
		Long: `epubmeta opens EPUB 2 and EPUB 3 archives and reports what their
package document declares: title, identifier, language, manifest,
reading-order spine and table of contents. It can also extract the
cover image or the whole archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(cmd)

	cmd.AddCommand(
		newInfoCmd(),
		newManifestCmd(),
		newSpineCmd(),
		newTOCCmd(),
		newCoverCmd(),
		newExtractCmd(),
		newRootfileCmd(),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "epubmeta: %v (%s)\n", err, epub.Code(err))
		os.Exit(1)
	}
}

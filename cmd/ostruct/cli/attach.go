package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ostruct "github.com/yaniv-golan/ostruct-go"
)

// Attach command flags.
var (
	attachFiles   []string
	attachDirs    []string
	attachCollect []string
	attachRecurse bool
	attachPattern string
	attachJSON    bool
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Validate and attach local files",
	Long: `Attach validates local files against the trust boundary and lists the
resulting attachments.

Inputs use alias:path syntax; the alias is how a template refers to the
attachment. Without a colon, the file's base name becomes the alias.

Examples:
  ostruct attach --file config:./config.yaml
  ostruct attach --dir src:./src --recursive --pattern '*.go'
  ostruct attach --collect docs:filelist.txt
  ostruct attach --file report.pdf --json`,
	Args: cobra.NoArgs,
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().StringArrayVar(&attachFiles, "file", nil, "Attach a single file (alias:path, repeatable)")
	attachCmd.Flags().StringArrayVar(&attachDirs, "dir", nil, "Attach files in a directory (alias:path, repeatable)")
	attachCmd.Flags().StringArrayVar(&attachCollect, "collect", nil, "Attach files named in a list file (alias:path, repeatable)")
	attachCmd.Flags().BoolVarP(&attachRecurse, "recursive", "r", false, "Descend into subdirectories for --dir")
	attachCmd.Flags().StringVar(&attachPattern, "pattern", "", "Glob filter on base names for --dir")
	attachCmd.Flags().BoolVar(&attachJSON, "json", false, "Emit attachments as JSON")
	rootCmd.AddCommand(attachCmd)
}

func runAttach(_ *cobra.Command, _ []string) error {
	if len(attachFiles)+len(attachDirs)+len(attachCollect) == 0 {
		return fmt.Errorf("nothing to attach: use --file, --dir, or --collect")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	var attachments []ostruct.Attachment
	for _, spec := range attachFiles {
		alias, path := splitAliasPath(spec)
		att, attachErr := client.AttachFile(alias, path)
		if attachErr != nil {
			return attachErr
		}
		attachments = append(attachments, att)
	}
	var dirOpts []ostruct.AttachOption
	if attachRecurse {
		dirOpts = append(dirOpts, ostruct.WithRecursive(true))
	}
	if attachPattern != "" {
		dirOpts = append(dirOpts, ostruct.WithPattern(attachPattern))
	}
	for _, spec := range attachDirs {
		alias, dir := splitAliasPath(spec)
		atts, attachErr := client.AttachDir(alias, dir, dirOpts...)
		if attachErr != nil {
			return attachErr
		}
		attachments = append(attachments, atts...)
	}
	for _, spec := range attachCollect {
		alias, list := splitAliasPath(spec)
		atts, attachErr := client.Collect(alias, list)
		if attachErr != nil {
			return attachErr
		}
		attachments = append(attachments, atts...)
	}

	if attachJSON {
		return printAttachmentsJSON(attachments)
	}
	printAttachments(attachments)
	return nil
}

// splitAliasPath splits "alias:path"; without a colon the base name is the
// alias. A single-letter prefix before ':' on Windows-style input is a drive,
// not an alias.
func splitAliasPath(spec string) (alias, path string) {
	if i := strings.Index(spec, ":"); i > 1 {
		return spec[:i], spec[i+1:]
	}
	return filepath.Base(spec), spec
}

func printAttachments(attachments []ostruct.Attachment) {
	ok := color.New(color.FgGreen).SprintFunc()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tALIAS\tSIZE\tDIGEST\tPATH")
	for _, att := range attachments {
		digest := att.Digest
		if digest == "" {
			digest = "-"
		} else if len(digest) > 19 {
			digest = digest[:19]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ok("ok"), att.Alias, humanize.Bytes(safeUint64(att.Size)), digest, att.Path)
	}
	tw.Flush()
	fmt.Printf("%d attachment(s)\n", len(attachments))
}

type attachmentJSON struct {
	Alias  string `json:"alias"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Digest string `json:"digest,omitempty"`
}

func printAttachmentsJSON(attachments []ostruct.Attachment) error {
	out := make([]attachmentJSON, 0, len(attachments))
	for _, att := range attachments {
		out = append(out, attachmentJSON{
			Alias:  att.Alias,
			Path:   att.Path,
			Size:   att.Size,
			Digest: att.Digest,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

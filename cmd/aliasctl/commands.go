package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/media-path/internal/media/biz"
)

var (
	listPage     int
	listPageSize int
	resolveLang  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List alias rows",
	Example: `  aliasctl list
  aliasctl list --page 2 --page-size 50 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, total, err := usecase.ListAliases(cmd.Context(), listPage, listPageSize)
		if err != nil {
			return fmt.Errorf("list aliases: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]any{"items": items, "total": total})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tPATH\tALIAS")
		for _, a := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Langcode, a.Path, a.Alias)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d rows\n", len(items), total)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <media-id> <alias>",
	Short: "Set the download path alias of a media entity",
	Long: `Set validates the alias against the extensions the media entity allows
and writes it the same way a form submission does: the existing row for the
download path is updated in place, extra rows are removed.`,
	Example: `  aliasctl set 12 /reports/annual-2025.pdf`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveAlias(cmd, args[0], args[1])
	},
}

var clearCmd = &cobra.Command{
	Use:     "clear <media-id>",
	Short:   "Remove the download path alias of a media entity",
	Example: `  aliasctl clear 12`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveAlias(cmd, args[0], "")
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show what a request path resolves to",
	Example: `  aliasctl resolve /reports/annual-2025.pdf
  aliasctl resolve /rapport.pdf --lang fr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := resolver.Resolve(cmd.Context(), biz.ResolveRequest{
			Path:       args[0],
			RequestURI: args[0],
			Langcode:   resolveLang,
			Account:    operator{},
		})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", args[0], err)
		}

		out := map[string]any{
			"kind":           res.Kind.String(),
			"canonical_path": res.CanonicalPath,
		}
		if res.Media != nil {
			out["media_id"] = res.Media.ID
		}
		if res.File != nil {
			out["file_uri"] = res.File.URI
			out["filename"] = res.File.Filename
			out["disposition"] = res.Disposition
		}
		if res.RedirectTo != "" {
			out["redirect_to"] = res.RedirectTo
		}
		if jsonOutput {
			return printJSON(out)
		}
		for _, k := range []string{"kind", "canonical_path", "media_id", "file_uri", "filename", "disposition", "redirect_to"} {
			if v, ok := out[k]; ok {
				fmt.Printf("%-15s %v\n", k+":", v)
			}
		}
		return nil
	},
}

var extensionsCmd = &cobra.Command{
	Use:     "extensions <media-id>",
	Short:   "List the extensions an alias of the media entity may end with",
	Example: `  aliasctl extensions 12`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMediaID(args[0])
		if err != nil {
			return err
		}
		exts, err := usecase.AllowedExtensions(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("allowed extensions: %w", err)
		}
		if jsonOutput {
			return printJSON(exts)
		}
		if len(exts) == 0 {
			fmt.Println("(none)")
			return nil
		}
		fmt.Println(strings.Join(exts, " "))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 20, "rows per page")
	resolveCmd.Flags().StringVar(&resolveLang, "lang", "", "language of the alias (default: media.default_langcode)")
}

func saveAlias(cmd *cobra.Command, rawID, alias string) error {
	id, err := parseMediaID(rawID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	m, err := usecase.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load media %d: %w", id, err)
	}

	_, state, err := usecase.Save(ctx, operator{}, biz.EntityForm{Media: m, Alias: alias})
	if err != nil {
		if ve, ok := biz.AsValidationError(err); ok {
			return ve
		}
		return fmt.Errorf("save media %d: %w", id, err)
	}

	if state.HasAlias() {
		fmt.Printf("%s -> %s\n", state.Alias, biz.DownloadPath(id))
	} else {
		fmt.Printf("download path of media %d has no alias\n", id)
	}
	return nil
}

func parseMediaID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid media id %q", s)
	}
	return uint(id), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

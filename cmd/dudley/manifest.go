// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"dudley/internal/manifest"
)

// newManifestCommand creates the `dudley manifest` command tree, the
// scripting surface over the manifest builder used by Containerfile steps.
func newManifestCommand(app *App) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build and inspect the build manifest",
		Long: `Build and inspect the build manifest.

The manifest records what a build produced: the image references, the
build date and commit, and a content-based version for every first-boot
hook. Containerfile steps drive it incrementally:

  dudley manifest init --image ... --base ... --commit ... -f /tmp/m.json
  dudley manifest add-hook my-hook --version abc12345 --dep run.sh -f /tmp/m.json
  dudley manifest write -f /tmp/m.json -o /etc/dudley/build-manifest.json

'init' and 'add-hook' write the working file without validation;
'write' validates against the manifest schema and writes atomically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	manifestCmd.AddCommand(newManifestInitCommand(app))
	manifestCmd.AddCommand(newManifestAddHookCommand(app))
	manifestCmd.AddCommand(newManifestWriteCommand(app))
	manifestCmd.AddCommand(newManifestShowCommand(app))

	return manifestCmd
}

func newManifestInitCommand(app *App) *cobra.Command {
	var (
		file   string
		image  string
		base   string
		commit string
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new working manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := manifest.New(image, base, commit)
			data, err := manifest.Encode(doc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("failed to write manifest: %w", err)
			}
			app.Logger.Debug("manifest initialized", "path", file, "image", image)
			return nil
		},
	}

	initCmd.Flags().StringVarP(&file, "file", "f", "build-manifest.json", "working manifest file")
	initCmd.Flags().StringVar(&image, "image", "", "image reference being built")
	initCmd.Flags().StringVar(&base, "base", "", "base image reference")
	initCmd.Flags().StringVar(&commit, "commit", "unknown", "source commit")
	_ = initCmd.MarkFlagRequired("image")
	_ = initCmd.MarkFlagRequired("base")

	return initCmd
}

func newManifestAddHookCommand(app *App) *cobra.Command {
	var (
		file     string
		version  string
		deps     []string
		metadata []string
	)

	addCmd := &cobra.Command{
		Use:   "add-hook <name>",
		Short: "Record a hook version in the working manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			doc, err := manifest.Read(file)
			if err != nil {
				return err
			}

			meta, err := parseMetadataFlags(metadata)
			if err != nil {
				return err
			}

			doc, err = manifest.AddHook(doc, name, version, deps, meta)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			data, err := manifest.Encode(doc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("failed to write manifest: %w", err)
			}
			app.Logger.Debug("hook recorded", "hook", name, "version", version)
			return nil
		},
	}

	addCmd.Flags().StringVarP(&file, "file", "f", "build-manifest.json", "working manifest file")
	addCmd.Flags().StringVar(&version, "version", "", "8-char content version")
	addCmd.Flags().StringArrayVar(&deps, "dep", nil, "hash dependency (repeatable)")
	addCmd.Flags().StringArrayVar(&metadata, "meta", nil, "metadata entry as key=value (repeatable)")
	_ = addCmd.MarkFlagRequired("version")
	_ = addCmd.MarkFlagRequired("dep")

	return addCmd
}

func newManifestWriteCommand(app *App) *cobra.Command {
	var (
		file string
		out  string
	)

	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Validate the working manifest and write it to its final path",
		Long: `Validate the working manifest against the manifest schema and write
it atomically to its final path. On validation failure nothing is
written and any existing manifest at the destination is untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := manifest.Read(file)
			if err != nil {
				return err
			}
			if out == "" {
				cfg, cfgErr := app.loadConfig(cmd.Context())
				if cfgErr != nil {
					return cfgErr
				}
				out = cfg.ManifestPath
			}
			if err := manifest.Write(doc, out, app.Logger); err != nil {
				return commandError(app, cmd, "Error", err)
			}
			app.Logger.Info("manifest written", "path", out, "hooks", len(doc.Hooks))
			return nil
		},
	}

	writeCmd.Flags().StringVarP(&file, "file", "f", "build-manifest.json", "working manifest file")
	writeCmd.Flags().StringVarP(&out, "output", "o", "", "final manifest path (default from config)")

	return writeCmd
}

func newManifestShowCommand(app *App) *cobra.Command {
	var (
		file     string
		jsonMode bool
	)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				cfg, err := app.loadConfig(cmd.Context())
				if err != nil {
					return err
				}
				file = cfg.ManifestPath
			}

			doc, err := manifest.Read(file)
			if err != nil {
				return err
			}

			if jsonMode {
				data, encErr := manifest.Encode(doc)
				if encErr != nil {
					return encErr
				}
				fmt.Fprintln(app.stdout, string(data))
				return nil
			}

			printManifest(app, doc)
			return nil
		},
	}

	showCmd.Flags().StringVarP(&file, "file", "f", "", "manifest file (default from config)")
	showCmd.Flags().BoolVar(&jsonMode, "json", false, "print raw JSON")

	return showCmd
}

// parseMetadataFlags converts repeated key=value flags into a map.
func parseMetadataFlags(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", entry)
		}
		meta[key] = value
	}
	return meta, nil
}

// printManifest renders a manifest in human-readable form.
func printManifest(app *App, doc manifest.Document) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Build Manifest"))
	fmt.Fprintf(app.stdout, "  schema:  %s\n", doc.Version)
	fmt.Fprintf(app.stdout, "  date:    %s\n", doc.Build.Date)
	fmt.Fprintf(app.stdout, "  image:   %s\n", ModuleStyle.Render(doc.Build.Image))
	fmt.Fprintf(app.stdout, "  base:    %s\n", ModuleStyle.Render(doc.Build.Base))
	fmt.Fprintf(app.stdout, "  commit:  %s\n", doc.Build.Commit)

	if len(doc.Hooks) == 0 {
		fmt.Fprintln(app.stdout, "  hooks:   none")
		return
	}

	fmt.Fprintf(app.stdout, "  hooks:   %d\n", len(doc.Hooks))
	for _, name := range sortedHookNames(doc) {
		hook := doc.Hooks[name]
		fmt.Fprintf(app.stdout, "    %s %s (%d deps)\n",
			SuccessStyle.Render(hook.Version), ModuleStyle.Render(name), len(hook.Dependencies))
	}
}

func sortedHookNames(doc manifest.Document) []string {
	names := make([]string, 0, len(doc.Hooks))
	for name := range doc.Hooks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

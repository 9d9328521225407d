// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	ModuleMetadataParseErrorId
	ModuleNameCollisionId
	HashDependencyMissingId
	DependencyCycleId
	UnknownDependencyId
	ModuleExecutionFailedId
	ManifestSchemaViolationId
	HookStateUnwritableId
	ShellNotFoundId
	ConfigLoadFailedId
	DiskConfigParseErrorId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links for the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

No module with that name exists under the build modules root.

## Things you can try:
- List all discovered modules:
~~~
$ dudley validate
~~~

- Check for typos in the module name
- Verify the module directory contains a module.cue file
- Modules live under <root>/<category>/<name>/, where category is one of:
  shared-utilities, desktop, developer-tools, user-hooks`,
	}

	moduleMetadataParseErrorIssue = &Issue{
		id: ModuleMetadataParseErrorId,
		mdMsg: `
# Failed to parse module metadata!

The module's module.cue file contains syntax errors or invalid fields.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- depends_on referring to itself
- An entrypoint that does not exist in the module directory

## Things you can try:
- Check the error message above for the specific line/column
- Validate the CUE syntax with the cue command-line tool

## Example of a valid module.cue:
~~~cue
name: "install-fonts"
entrypoint: "run.sh"
depends_on: ["shared-env"]
parallel_safe: true
hash_deps: ["fonts.list"]
~~~`,
	}

	moduleNameCollisionIssue = &Issue{
		id: ModuleNameCollisionId,
		mdMsg: `
# Module name collision!

Two modules in different categories resolved to the same name.
Module names must be unique across the entire build tree because
dependencies and hook version records refer to them by bare name.

## Things you can try:
- Rename one of the colliding modules in its module.cue
- If the name field is omitted, the directory basename is used;
  rename one of the directories`,
	}

	hashDependencyMissingIssue = &Issue{
		id: HashDependencyMissingId,
		mdMsg: `
# Hash dependency missing!

A path listed in a module's hash_deps does not exist, so the module's
content version cannot be computed. Nothing was hashed.

## Things you can try:
- Check the hash_deps entries in the module's module.cue for typos
- Paths are resolved relative to the module directory
- Remove entries for files that no longer exist`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Module dependencies within a category form a cycle, so no valid
execution order exists. The build was aborted before any module ran.

## Example of a cycle:
~~~cue
// desktop/a/module.cue
depends_on: ["b"]

// desktop/b/module.cue
depends_on: ["a"]  // Cycle: a -> b -> a
~~~

## Things you can try:
- Review the depends_on fields of the modules named in the error
- Break the cycle by removing one edge or extracting shared work
  into a third module both can depend on`,
	}

	unknownDependencyIssue = &Issue{
		id: UnknownDependencyId,
		mdMsg: `
# Unknown dependency!

A module's depends_on names a module that was not discovered in the
same category. Dependencies can only point at sibling modules.

## Things you can try:
- Check the depends_on entry for typos
- Cross-category ordering is fixed (shared-utilities, desktop,
  developer-tools, user-hooks); a module never needs to depend on
  a module from an earlier category`,
	}

	moduleExecutionFailedIssue = &Issue{
		id: ModuleExecutionFailedId,
		mdMsg: `
# Module execution failed!

A module's entrypoint exited with a failure status and the build
was halted. Exit status 2 means an intentional skip and would not
have stopped the build.

## Things you can try:
- Inspect the captured output above for the failing command
- Run the module's entrypoint by hand from its directory
- Check that tools the script needs are installed in the build image`,
	}

	manifestSchemaViolationIssue = &Issue{
		id: ManifestSchemaViolationId,
		mdMsg: `
# Manifest schema violation!

The build manifest failed validation and was NOT written to disk.
The previous manifest, if any, is untouched.

## Common causes:
- A hook version that is not exactly 8 lowercase hex characters
- A hook with an empty dependencies list
- Missing build metadata (date, image, base, commit)

## Things you can try:
- Re-run the build with --verbose to see each violation
- If a hook script was edited mid-build, re-run from the start`,
	}

	hookStateUnwritableIssue = &Issue{
		id: HookStateUnwritableId,
		mdMsg: `
# Hook state not writable!

The hook payload ran successfully but its version could not be
recorded. The hook WILL RUN AGAIN on the next boot.

## State location:
- /var/lib/dudley/hook-versions/<hook-name>.json

## Things you can try:
- Check that /var/lib/dudley exists and is writable by the service
- Check for a read-only filesystem or disk-full condition`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a suitable shell for the native runtime.

## Shells we look for:
- $SHELL, bash, sh

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Use the built-in interpreter instead:
~~~
$ dudley build --runtime virtual
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the dudley configuration file.

## Configuration file locations (in order of precedence):
- Path given via --config
- /etc/dudley/config.cue
- ~/.config/dudley/config.cue

## Things you can try:
- Check the configuration syntax with the cue command-line tool
- Remove the config file to use defaults

## Example configuration:
~~~cue
modules_root: "/usr/share/dudley/build_files"
manifest_path: "/etc/dudley/build-manifest.json"
state_dir: "/var/lib/dudley/hook-versions"

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	diskConfigParseErrorIssue = &Issue{
		id: DiskConfigParseErrorId,
		mdMsg: `
# Failed to parse disk configuration!

A disk_config TOML file (iso.toml or disk.toml) contains syntax
errors or values of the wrong type.

## Things you can try:
- Check the error message above for the offending line
- Compare against the bootc-image-builder documentation for the
  customizations schema`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- Writing the manifest to /etc/dudley without privileges
- Recording hook state under /var/lib/dudley without privileges
- A module entrypoint that is not executable

## Things you can try:
- Check file and directory permissions
- During image builds, run as the build user the image expects
- Mark entrypoints executable: chmod +x run.sh`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():           moduleNotFoundIssue,
		moduleMetadataParseErrorIssue.Id(): moduleMetadataParseErrorIssue,
		moduleNameCollisionIssue.Id():      moduleNameCollisionIssue,
		hashDependencyMissingIssue.Id():    hashDependencyMissingIssue,
		dependencyCycleIssue.Id():          dependencyCycleIssue,
		unknownDependencyIssue.Id():        unknownDependencyIssue,
		moduleExecutionFailedIssue.Id():    moduleExecutionFailedIssue,
		manifestSchemaViolationIssue.Id():  manifestSchemaViolationIssue,
		hookStateUnwritableIssue.Id():      hookStateUnwritableIssue,
		shellNotFoundIssue.Id():            shellNotFoundIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		diskConfigParseErrorIssue.Id():     diskConfigParseErrorIssue,
		permissionDeniedIssue.Id():         permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

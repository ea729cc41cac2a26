// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	VenvNotConfiguredId
	DependenciesMissingId
	PipelineStepFailedId
	NoTerminalEmulatorId
	HostNotSupportedId
	ProjectNotFoundId
	ToolNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation for this issue
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

// Render renders the issue with glamour. stylePath is a glamour style name
// ("dark", "light", "notty") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The zephyrup config file exists but could not be read or does not match the schema.

## Things you can try:
- Show where zephyrup looks for the file:
~~~
$ zephyrup config path
~~~
- Print a valid configuration and compare:
~~~
$ zephyrup config dump
~~~
- Point zephyrup at another file with ` + "`--config <path>`",
	}

	venvNotConfiguredIssue = &Issue{
		id: VenvNotConfiguredId,
		mdMsg: `
# No Zephyr environment configured!

This command needs the Python virtual environment created by ` + "`zephyrup install`" + `,
but ` + "`venv_path`" + ` is not set or the directory no longer exists.

## Things you can try:
- Provision an environment:
~~~
$ zephyrup install ~/zephyrproject
~~~
- Or point zephyrup at an existing one:
~~~
$ zephyrup config set venv_path ~/zephyrproject/.venv
$ zephyrup config set zephyr_base ~/zephyrproject/zephyr
~~~`,
		extLinks: []HttpLink{"https://docs.zephyrproject.org/latest/develop/getting_started/index.html"},
	}

	dependenciesMissingIssue = &Issue{
		id: DependenciesMissingId,
		mdMsg: `
# Required host tools are missing!

Some dependencies marked as required were not found on this machine.

## Things you can try:
- Review the report:
~~~
$ zephyrup doctor
~~~
- Print the package manager command for the missing ones:
~~~
$ zephyrup install-deps --print
~~~
- Or let zephyrup open an installer window:
~~~
$ zephyrup install-deps
~~~`,
		extLinks: []HttpLink{"https://docs.zephyrproject.org/latest/develop/getting_started/index.html#install-dependencies"},
	}

	pipelineStepFailedIssue = &Issue{
		id: PipelineStepFailedId,
		mdMsg: `
# A provisioning step failed!

The step's command exited with an error. Its last output lines are shown above.
Nothing is rolled back and there is no resume: fix the cause and run the command again.

## Common causes:
- No network access to GitHub or the package mirror
- A stale mirror: clear it with ` + "`zephyrup config set pip_index_url \"\"`" + `
- Not enough disk space for the Zephyr checkout and SDK`,
	}

	noTerminalEmulatorIssue = &Issue{
		id: NoTerminalEmulatorId,
		mdMsg: `
# No terminal emulator found!

zephyrup opens the package installer in a separate terminal window and could not
find one of x-terminal-emulator, gnome-terminal, konsole, xfce4-terminal or xterm.

## Things you can try:
- Print the command and run it yourself:
~~~
$ zephyrup install-deps --print
~~~`,
	}

	hostNotSupportedIssue = &Issue{
		id: HostNotSupportedId,
		mdMsg: `
# Host not supported!

zephyrup knows the dependencies of Debian and Ubuntu, Fedora, macOS and Windows.
This host is none of those, so no dependency report can be produced.

## Things you can try:
- Install the Zephyr prerequisites by hand, then run ` + "`zephyrup install`",
		extLinks: []HttpLink{"https://docs.zephyrproject.org/latest/develop/getting_started/index.html"},
	}

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# Project not found!

The path is not in the project history, or the directory does not exist anymore.

## Things you can try:
- List known projects:
~~~
$ zephyrup project history
~~~
- Forget a stale entry:
~~~
$ zephyrup project remove <path>
~~~`,
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# Program not found!

A command could not be started because its executable is missing or not executable.

## Things you can try:
- Run ` + "`zephyrup doctor`" + ` to see which tools are installed
- Check that the virtual environment still exists at the configured ` + "`venv_path`",
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		venvNotConfiguredIssue.Id():   venvNotConfiguredIssue,
		dependenciesMissingIssue.Id(): dependenciesMissingIssue,
		pipelineStepFailedIssue.Id():  pipelineStepFailedIssue,
		noTerminalEmulatorIssue.Id():  noTerminalEmulatorIssue,
		hostNotSupportedIssue.Id():    hostNotSupportedIssue,
		projectNotFoundIssue.Id():     projectNotFoundIssue,
		toolNotFoundIssue.Id():        toolNotFoundIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

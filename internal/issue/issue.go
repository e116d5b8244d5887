// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ProjectRootNotFoundId Id = iota + 1
	ConfigLoadFailedId
	InvalidMappingId
	InvalidLayoutId
	NoDocumentsFoundId
	DocumentUnreadableId
	TagNotFoundId
	CacheOpenFailedId
	ServerStartFailedId
	WatchFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
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

	projectRootNotFoundIssue = &Issue{
		id: ProjectRootNotFoundId,
		mdMsg: `
# Project root not found!

The directory you asked tagscope to index does not exist or is not a directory.

## Things you can try:
- Point tagscope at your project explicitly:
~~~
$ tagscope tree /path/to/project
~~~

- Or run it from inside the project:
~~~
$ cd /path/to/project
$ tagscope tree
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be parsed or did not match the schema.

## Things you can try:
- Show where tagscope looks for its configuration:
~~~
$ tagscope config path
~~~

- Print the effective configuration:
~~~
$ tagscope config show
~~~

- A minimal valid configuration:
~~~cue
layout: "grouped"
statistics: "simplified"
mappings: [
  {category: "Priority", tags: "smoke,critical"},
  {category: "Tickets", tags: "#JIRA-\\d+"},
]
~~~`,
	}

	invalidMappingIssue = &Issue{
		id: InvalidMappingId,
		mdMsg: `
# Invalid tag mapping!

One of the tag tokens in your mappings starts with "#" but is not a valid regular expression.
The token is kept, but it will never match any tag.

## Things you can try:
- Remember that regex tokens match the whole tag:
~~~
#JIRA-\d+      matches "JIRA-42" but not "see-JIRA-42"
~~~

- Escape special characters such as "(" and "[" with a backslash.`,
	}

	invalidLayoutIssue = &Issue{
		id: InvalidLayoutId,
		mdMsg: `
# Invalid layout!

tagscope knows two layouts:

- **flat**: categories directly under the root
- **grouped**: one level per content root (module or configured directory)

## Things you can try:
~~~
$ tagscope tree --layout grouped
~~~`,
	}

	noDocumentsFoundIssue = &Issue{
		id: NoDocumentsFoundId,
		mdMsg: `
# No documents found!

No ".feature" or ".story" files matched the include patterns under the project root.

## Things you can try:
- Check the include and ignore globs in your configuration:
~~~cue
include: ["**/*.feature", "**/*.story"]
ignore: ["**/build/**"]
~~~

- Run with verbose logging to see what was scanned:
~~~
$ tagscope tree --verbose
~~~`,
	}

	documentUnreadableIssue = &Issue{
		id: DocumentUnreadableId,
		mdMsg: `
# Document could not be read!

The document exists but could not be read or parsed. It is skipped until it changes.

## Things you can try:
- Check file permissions
- Check that the file is valid UTF-8 text`,
	}

	tagNotFoundIssue = &Issue{
		id: TagNotFoundId,
		mdMsg: `
# Tag not found!

No document in the index carries the tag you asked for.

## Things you can try:
- List every tag with its category:
~~~
$ tagscope tree --layout flat
~~~

- Tags are matched exactly and without the leading "@".`,
	}

	cacheOpenFailedIssue = &Issue{
		id: CacheOpenFailedId,
		mdMsg: `
# Failed to open the parse cache!

tagscope keeps parsed documents in an on-disk cache. It could not be opened,
most likely because another tagscope process holds the lock.

## Things you can try:
- Stop other tagscope processes using the same cache directory
- Disable the cache for this run:
~~~
$ TAGSCOPE_CACHE_ENABLED=false tagscope tree
~~~`,
	}

	serverStartFailedIssue = &Issue{
		id: ServerStartFailedId,
		mdMsg: `
# Failed to start the server!

The HTTP or SSH listener could not be started.

## Things you can try:
- Check that the port is free:
~~~
$ tagscope serve --http-addr 127.0.0.1:8089 --ssh-port 23235
~~~

- Ports below 1024 usually need elevated privileges.`,
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# File watching failed!

The file system watcher could not be started or stopped unexpectedly.

## Things you can try:
- On Linux, raise the inotify watch limit:
~~~
$ sysctl fs.inotify.max_user_watches=524288
~~~

- Add large generated directories to "ignore" in your configuration.`,
		extLinks: []HttpLink{"https://github.com/fsnotify/fsnotify#faq"},
	}

	issues = map[Id]*Issue{
		projectRootNotFoundIssue.Id(): projectRootNotFoundIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		invalidMappingIssue.Id():      invalidMappingIssue,
		invalidLayoutIssue.Id():       invalidLayoutIssue,
		noDocumentsFoundIssue.Id():    noDocumentsFoundIssue,
		documentUnreadableIssue.Id():  documentUnreadableIssue,
		tagNotFoundIssue.Id():         tagNotFoundIssue,
		cacheOpenFailedIssue.Id():     cacheOpenFailedIssue,
		serverStartFailedIssue.Id():   serverStartFailedIssue,
		watchFailedIssue.Id():         watchFailedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}

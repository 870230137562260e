package assets

// Names of the built-in assets.
const (
	CodelabName = "codelab" // stylesheet, script and page template share it

	IndexTemplate    = "index"
	ViewsTemplate    = "views"
	NotFoundTemplate = "notfound"
)

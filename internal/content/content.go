package content

// Item is one vocabulary entry: the word being taught plus its optional
// description and media reference (image or clip of the sign).
type Item struct {
	ID          string
	Word        string
	Description string
	MediaRef    string
}

// Category groups the vocabulary items of one topic. The display name comes
// from the source file name.
type Category struct {
	Name  string
	Items []Item
}

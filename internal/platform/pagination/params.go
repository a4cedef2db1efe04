package pagination

// Params embeds into huma input structs of list operations.
type Params struct {
	Cursor string `query:"cursor" doc:"Opaque cursor taken from the previous page's Link header"`
	Limit  int    `query:"limit"  doc:"Maximum items per page; 0 returns everything" minimum:"0" maximum:"500"`
}

// Paged reports whether the caller asked for a bounded page.
func (p Params) Paged() bool {
	return p.Limit > 0 || p.Cursor != ""
}

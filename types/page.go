package types

// PageState tracks the pagination position of a list view. Page is 1-based;
// TotalCount is the filtered count in client-paginated mode or the
// collaborator-reported total in server-paginated mode.
type PageState struct {
	Page       int
	PageSize   int
	TotalCount int
}

package note

import "github.com/shinji-kodama/notesync/internal/model"

// SelectLatestInternal returns the first internal comment in the given order.
//
// Callers must pass comments newest-first; no sorting is done here, so the
// result is "the most recent internal comment" only under that ordering.
// The second return value is false when every comment is public.
func SelectLatestInternal(comments []model.Comment) (model.Comment, bool) {
	for _, c := range comments {
		if c.IsInternal() {
			return c, true
		}
	}
	return model.Comment{}, false
}
